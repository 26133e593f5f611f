package coordination

import (
	"fmt"
	"sort"
	"strings"
)

// fileIndex is the content-addressed dedup registry. Not safe for
// concurrent use on its own; callers hold the backend's mutex.
//
// Empty files are tracked by name only. They carry no canonical entry
// because their content key is meaningless and they never need a data
// write.
type fileIndex struct {
	// file name -> content key, one entry per registered name
	names map[string]SizeAndChecksum
	// content key -> canonical metadata, first registrant wins
	infos map[SizeAndChecksum]FileInfo
}

func newFileIndex() *fileIndex {
	return &fileIndex{
		names: make(map[string]SizeAndChecksum),
		infos: make(map[SizeAndChecksum]FileInfo),
	}
}

// add registers a file name with its content key and reports whether the
// caller must write the file's bytes. Only the first registration of a
// non-empty content key whose size exceeds its incremental base needs a
// write; every later name for the same content is a pure reference.
func (x *fileIndex) add(info FileInfo) bool {
	x.names[info.FileName] = info.SizeAndChecksum()
	if info.Size == 0 {
		return false
	}
	sc := info.SizeAndChecksum()
	if _, known := x.infos[sc]; known {
		return false
	}
	x.infos[sc] = info
	return info.Size > info.BaseSize
}

// update sets the archive suffix on the canonical entry. No-op for empty
// files; unknown content is a protocol violation.
func (x *fileIndex) update(info FileInfo) error {
	if info.Size == 0 {
		return nil
	}
	sc := info.SizeAndChecksum()
	dest, ok := x.infos[sc]
	if !ok {
		return fmt.Errorf("no file info registered for size=%d checksum=%s", sc.Size, sc.Checksum)
	}
	dest.ArchiveSuffix = info.ArchiveSuffix
	x.infos[sc] = dest
	return nil
}

func (x *fileIndex) byName(fileName string) (FileInfo, bool) {
	sc, ok := x.names[fileName]
	if !ok {
		return FileInfo{}, false
	}
	var info FileInfo
	if sc.Size != 0 {
		info = x.infos[sc]
	}
	info.FileName = fileName
	return info, true
}

func (x *fileIndex) byChecksum(sc SizeAndChecksum) (FileInfo, bool) {
	info, ok := x.infos[sc]
	return info, ok
}

func (x *fileIndex) sizeAndChecksum(fileName string) (SizeAndChecksum, bool) {
	sc, ok := x.names[fileName]
	return sc, ok
}

// all returns one resolved FileInfo per registered name, sorted by name.
func (x *fileIndex) all() []FileInfo {
	res := make([]FileInfo, 0, len(x.names))
	for name, sc := range x.names {
		var info FileInfo
		if sc.Size != 0 {
			info = x.infos[sc]
		}
		info.FileName = name
		res = append(res, info)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].FileName < res[j].FileName })
	return res
}

// list emulates a directory listing over the flat name keyspace. For
// every name starting with prefix it takes the remainder up to the first
// occurrence of terminator (to end of string if terminator is empty or
// absent), sorted with adjacent duplicates collapsed.
func (x *fileIndex) list(prefix, terminator string) []string {
	matching := make([]string, 0, len(x.names))
	for name := range x.names {
		if strings.HasPrefix(name, prefix) {
			matching = append(matching, name)
		}
	}
	sort.Strings(matching)

	var elements []string
	for _, name := range matching {
		element := name[len(prefix):]
		if terminator != "" {
			if pos := strings.Index(element, terminator); pos >= 0 {
				element = element[:pos]
			}
		}
		if len(elements) > 0 && elements[len(elements)-1] == element {
			continue
		}
		elements = append(elements, element)
	}
	return elements
}

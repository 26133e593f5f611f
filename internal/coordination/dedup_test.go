package coordination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileIndexFirstRegistrantWins(t *testing.T) {
	x := newFileIndex()

	first := FileInfo{FileName: "data/db/t/part-1/col.bin", Size: 100, Checksum: "abc"}
	second := FileInfo{FileName: "data/db/t/part-2/col.bin", Size: 100, Checksum: "abc"}

	assert.True(t, x.add(first))
	assert.False(t, x.add(second))

	// Both names resolve to the same canonical content.
	info, ok := x.byName(second.FileName)
	require.True(t, ok)
	assert.Equal(t, second.FileName, info.FileName)
	assert.Equal(t, uint64(100), info.Size)
	assert.Equal(t, "abc", info.Checksum)
}

func TestFileIndexEmptyFiles(t *testing.T) {
	x := newFileIndex()

	assert.False(t, x.add(FileInfo{FileName: "empty1", Size: 0}))
	assert.False(t, x.add(FileInfo{FileName: "empty2", Size: 0}))

	// No canonical entry is kept for empty files.
	_, ok := x.byChecksum(SizeAndChecksum{Size: 0, Checksum: ""})
	assert.False(t, ok)

	info, ok := x.byName("empty1")
	require.True(t, ok)
	assert.Equal(t, "empty1", info.FileName)
	assert.Zero(t, info.Size)
}

func TestFileIndexBaseBackupCoverage(t *testing.T) {
	tests := []struct {
		name      string
		info      FileInfo
		needsData bool
	}{
		{
			name:      "fully covered by base",
			info:      FileInfo{FileName: "a", Size: 100, Checksum: "x", BaseSize: 100},
			needsData: false,
		},
		{
			name:      "partially covered by base",
			info:      FileInfo{FileName: "b", Size: 100, Checksum: "y", BaseSize: 40},
			needsData: true,
		},
		{
			name:      "no base",
			info:      FileInfo{FileName: "c", Size: 100, Checksum: "z"},
			needsData: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newFileIndex()
			assert.Equal(t, tt.needsData, x.add(tt.info))
		})
	}
}

func TestFileIndexUpdateUnknownContent(t *testing.T) {
	x := newFileIndex()

	err := x.update(FileInfo{FileName: "a", Size: 10, Checksum: "nope", ArchiveSuffix: "001"})
	assert.Error(t, err)

	// Empty files are a no-op, never an error.
	assert.NoError(t, x.update(FileInfo{FileName: "e", Size: 0}))
}

func TestFileIndexRoundTrip(t *testing.T) {
	x := newFileIndex()

	info := FileInfo{FileName: "data/file.bin", Size: 2048, Checksum: "deadbeef", BaseSize: 512}
	require.True(t, x.add(info))

	info.ArchiveSuffix = "007"
	require.NoError(t, x.update(info))

	got, ok := x.byName("data/file.bin")
	require.True(t, ok)
	assert.Equal(t, uint64(2048), got.Size)
	assert.Equal(t, "deadbeef", got.Checksum)
	assert.Equal(t, uint64(512), got.BaseSize)
	assert.Equal(t, "007", got.ArchiveSuffix)

	sc, ok := x.sizeAndChecksum("data/file.bin")
	require.True(t, ok)
	assert.Equal(t, SizeAndChecksum{Size: 2048, Checksum: "deadbeef"}, sc)

	_, ok = x.byName("unknown")
	assert.False(t, ok)
}

func TestFileIndexList(t *testing.T) {
	x := newFileIndex()
	for i, name := range []string{"a/b/c", "a/b/d", "a/x"} {
		x.add(FileInfo{FileName: name, Size: uint64(i + 1), Checksum: name})
	}

	tests := []struct {
		name       string
		prefix     string
		terminator string
		want       []string
	}{
		{
			name:       "one level under a/",
			prefix:     "a/",
			terminator: "/",
			want:       []string{"b", "x"},
		},
		{
			name:       "full paths under a/",
			prefix:     "a/",
			terminator: "",
			want:       []string{"b/c", "b/d", "x"},
		},
		{
			name:       "root one level",
			prefix:     "",
			terminator: "/",
			want:       []string{"a"},
		},
		{
			name:       "no matches",
			prefix:     "z/",
			terminator: "/",
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.list(tt.prefix, tt.terminator))
		})
	}
}

func TestFileIndexAll(t *testing.T) {
	x := newFileIndex()
	x.add(FileInfo{FileName: "b", Size: 5, Checksum: "bb"})
	x.add(FileInfo{FileName: "a", Size: 5, Checksum: "bb"})
	x.add(FileInfo{FileName: "c", Size: 0})

	infos := x.all()
	require.Len(t, infos, 3)
	assert.Equal(t, "a", infos[0].FileName)
	assert.Equal(t, "b", infos[1].FileName)
	assert.Equal(t, "c", infos[2].FileName)
	assert.Equal(t, "bb", infos[0].Checksum)
	assert.Zero(t, infos[2].Size)
}

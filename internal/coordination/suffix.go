package coordination

import "fmt"

// suffixAllocator issues the strictly increasing archive suffix
// sequence "001", "002", ... and keeps the append-only log of issued
// suffixes. Callers hold the backend's mutex.
type suffixAllocator struct {
	current uint64
	issued  []string
}

func (a *suffixAllocator) next() string {
	a.current++
	// Three digits zero-padded; counts past 999 widen naturally.
	suffix := fmt.Sprintf("%03d", a.current)
	a.issued = append(a.issued, suffix)
	return suffix
}

func (a *suffixAllocator) all() []string {
	res := make([]string, len(a.issued))
	copy(res, a.issued)
	return res
}

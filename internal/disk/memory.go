package disk

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"dtb/internal/collections"
)

// memoryDisk keeps files in an in-process map. Useful for tests and for
// small throwaway backups.
type memoryDisk struct {
	name string

	mu    sync.RWMutex
	files map[string][]byte
}

func newMemory(_ context.Context, name string, _ *collections.Collection) (Disk, error) {
	return NewMemory(name), nil
}

// NewMemory creates an in-memory disk directly, bypassing the factory.
func NewMemory(name string) Disk {
	return &memoryDisk{name: name, files: make(map[string][]byte)}
}

func (d *memoryDisk) Name() string { return d.name }

func (d *memoryDisk) WriteFile(_ context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[path] = data
	return nil
}

func (d *memoryDisk) ReadFile(_ context.Context, path string) (io.ReadCloser, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.files[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	// Copy so later writes don't show through the reader.
	buf := make([]byte, len(data))
	copy(buf, data)
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (d *memoryDisk) Exists(_ context.Context, path string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.files[path]
	return ok, nil
}

func (d *memoryDisk) Size(_ context.Context, path string) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.files[path]
	if !ok {
		return 0, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}
	return int64(len(data)), nil
}

func (d *memoryDisk) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var paths []string
	for p := range d.files {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (d *memoryDisk) Remove(_ context.Context, path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	return nil
}

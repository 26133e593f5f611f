// Package disk abstracts the storage backends that hold archive bytes.
// Backends are registered by kind in a Factory and created by name from
// a typed settings collection, so the coordination core stays agnostic
// to where archive segments actually live.
package disk

import (
	"context"
	"fmt"
	"io"
	"sync"

	"dtb/internal/collections"
)

// Disk is one storage backend instance. Paths are slash-separated and
// relative to the disk's root.
type Disk interface {
	Name() string
	WriteFile(ctx context.Context, path string, r io.Reader) error
	ReadFile(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	Size(ctx context.Context, path string) (int64, error)
	// ListPrefix returns the paths of all files under prefix, sorted.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, path string) error
}

// Creator builds a disk instance from its typed settings.
type Creator func(ctx context.Context, name string, settings *collections.Collection) (Disk, error)

// Factory is the registry of disk kinds.
type Factory struct {
	mu       sync.RWMutex
	creators map[string]Creator
}

func NewFactory() *Factory {
	return &Factory{creators: make(map[string]Creator)}
}

func (f *Factory) Register(kind string, creator Creator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.creators[kind]; dup {
		panic("disk kind registered twice: " + kind)
	}
	f.creators[kind] = creator
}

func (f *Factory) Create(ctx context.Context, name, kind string, settings *collections.Collection) (Disk, error) {
	f.mu.RLock()
	creator, ok := f.creators[kind]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown disk kind: %s", kind)
	}
	d, err := creator(ctx, name, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk %s (kind %s): %w", name, kind, err)
	}
	return d, nil
}

// RegisterDefaults registers the built-in disk kinds: local filesystem,
// in-memory, S3 object storage, and read-only web filesystem.
func RegisterDefaults(f *Factory) {
	f.Register("local", newLocal)
	f.Register("memory", newMemory)
	f.Register("s3", newS3)
	f.Register("web", newWeb)
}

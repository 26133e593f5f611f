package disk

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dtb/internal/collections"
)

// localDisk stores files under a root directory on the local
// filesystem.
type localDisk struct {
	name string
	root string
}

func newLocal(_ context.Context, name string, settings *collections.Collection) (Disk, error) {
	root, err := settings.GetString("path")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create disk root %s: %w", root, err)
	}
	return &localDisk{name: name, root: root}, nil
}

func (d *localDisk) Name() string { return d.name }

func (d *localDisk) abs(path string) string {
	return filepath.Join(d.root, filepath.FromSlash(path))
}

func (d *localDisk) WriteFile(_ context.Context, path string, r io.Reader) error {
	abs := d.abs(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	tmp := abs + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, abs)
}

func (d *localDisk) ReadFile(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(d.abs(path))
}

func (d *localDisk) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(d.abs(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (d *localDisk) Size(_ context.Context, path string) (int64, error) {
	st, err := os.Stat(d.abs(path))
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

func (d *localDisk) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (d *localDisk) Remove(_ context.Context, path string) error {
	if err := os.Remove(d.abs(path)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

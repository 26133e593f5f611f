package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"dtb/internal/disk"
	"dtb/internal/manifest"
)

// Restore materializes a backup's files under targetDir. References
// resolve through their content key, so deduplicated files come back as
// full independent copies. Empty files are recreated without touching
// the disk backend.
func Restore(ctx context.Context, d disk.Disk, backupName, targetDir string) error {
	m, err := manifest.Read(ctx, d, backupName)
	if err != nil {
		return err
	}
	slog.Info("Restore started", "backup", backupName, "files", len(m.Entries), "target", targetDir)

	for _, e := range m.Entries {
		if ctx.Err() != nil {
			return fmt.Errorf("restore cancelled: %w", ctx.Err())
		}
		if err := restoreEntry(ctx, d, m.Name, e, targetDir); err != nil {
			return fmt.Errorf("failed to restore %s: %w", e.Name, err)
		}
	}

	slog.Info("Restore completed", "backup", backupName, "files", len(m.Entries))
	return nil
}

func restoreEntry(ctx context.Context, d disk.Disk, backupName string, e manifest.Entry, targetDir string) error {
	target := filepath.Join(targetDir, filepath.FromSlash(e.Name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	if e.Size == 0 {
		return os.WriteFile(target, nil, 0o644)
	}
	if e.ArchiveSuffix == "" {
		return fmt.Errorf("entry has no archive suffix")
	}

	rc, err := d.ReadFile(ctx, segmentPath(backupName, e.ArchiveSuffix, e.Checksum))
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	written, err := io.Copy(f, rc)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if uint64(written) != e.Size {
		return fmt.Errorf("size mismatch: stored %d bytes, expected %d", written, e.Size)
	}
	return nil
}

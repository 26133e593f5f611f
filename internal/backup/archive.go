package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"dtb/internal/coordination"
	"dtb/internal/disk"
)

// segmentWriter stores canonical file content on the destination disk,
// grouped into archive segments capped at maxSegmentSize. Each segment
// is a directory named by an allocated archive suffix; the bytes of one
// content key live at <backup>/data/<suffix>/<checksum>.
//
// Only the single writing host runs this, after the preparation barrier
// released.
type segmentWriter struct {
	backupName     string
	dest           disk.Disk
	coord          coordination.BackupCoordination
	maxSegmentSize int64
	log            *slog.Logger

	suffix      string
	segmentSize int64
	written     uint64
}

func newSegmentWriter(backupName string, dest disk.Disk, coord coordination.BackupCoordination, maxSegmentSize int64, log *slog.Logger) *segmentWriter {
	return &segmentWriter{
		backupName:     backupName,
		dest:           dest,
		coord:          coord,
		maxSegmentSize: maxSegmentSize,
		log:            log,
	}
}

func segmentPath(backupName, suffix, checksum string) string {
	return fmt.Sprintf("%s/data/%s/%s", backupName, suffix, checksum)
}

// write stores one pending file and records its archive suffix with the
// coordinator.
func (w *segmentWriter) write(ctx context.Context, p pendingWrite) error {
	if w.suffix == "" || w.segmentSize >= w.maxSegmentSize {
		w.suffix = w.coord.NextArchiveSuffix()
		w.segmentSize = 0
		w.log.Debug("Opened archive segment", "suffix", w.suffix)
	}

	f, err := os.Open(p.srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	target := segmentPath(w.backupName, w.suffix, p.info.Checksum)
	if err := w.dest.WriteFile(ctx, target, f); err != nil {
		return fmt.Errorf("failed to store %s: %w", p.info.FileName, err)
	}

	info := p.info
	info.ArchiveSuffix = w.suffix
	if err := w.coord.UpdateFileInfo(info); err != nil {
		return err
	}

	w.segmentSize += int64(p.info.Size)
	w.written += p.info.Size
	w.log.Debug("Stored file content", "file", p.info.FileName, "suffix", w.suffix, "bytes", p.info.Size)
	return nil
}

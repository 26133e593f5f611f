package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"dtb/internal/config"
	"dtb/internal/coordination"
	"dtb/internal/disk"
	"dtb/internal/lock"
	"dtb/internal/manifest"
	"dtb/internal/util"
)

// Run executes one backup session: every configured host runs its
// collect phase concurrently against a shared coordination instance,
// the preparation barrier gates the writing phase, and a single writer
// stores deduplicated content and the manifest on the destination disk.
func Run(ctx context.Context, configPath, backupName string) error {
	if backupName == "" {
		return fmt.Errorf("backup name must be specified")
	}
	if ctx.Err() != nil {
		return fmt.Errorf("backup cancelled before start: %w", ctx.Err())
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create base directory: %w", err)
	}

	logPath := filepath.Join(util.LogDir(cfg.BaseDir), fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	logger, logFile, err := util.SetupLogging(logPath, cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("Backup started", "backup", backupName, "hosts", len(cfg.Hosts))

	runDir := filepath.Join(cfg.BaseDir, "run")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	releaseLock, err := lock.Acquire(filepath.Join(runDir, "dtb.lock"), backupName)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if err := releaseLock(); err != nil {
			slog.Warn("Failed to release lock", "error", err)
		}
	}()

	dest, err := util.OpenDisk(ctx, cfg, cfg.Backup.DestinationDisk)
	if err != nil {
		return err
	}

	if exists, err := dest.Exists(ctx, manifest.Path(backupName)); err != nil {
		return fmt.Errorf("failed to check destination: %w", err)
	} else if exists {
		return fmt.Errorf("backup already exists: %s", backupName)
	}

	return run(ctx, cfg, dest, backupName, logger)
}

func run(ctx context.Context, cfg *config.Config, dest disk.Disk, backupName string, logger *slog.Logger) error {
	hostIDs := make([]string, len(cfg.Hosts))
	for i, h := range cfg.Hosts {
		hostIDs[i] = h.ID
	}

	coord := coordination.NewShared(hostIDs, logger)

	// Collect phase: every host concurrently. Failures are signalled to
	// the barrier, not returned, so the wait below surfaces them.
	collectors := make([]*collector, len(cfg.Hosts))
	done := make(chan struct{})
	for i, h := range cfg.Hosts {
		collectors[i] = newCollector(h.ID, h.SourceDir, coord, cfg.Workers(), logger)
		go func(c *collector) {
			defer func() { done <- struct{}{} }()
			c.run(ctx)
		}(collectors[i])
	}

	timeout := time.Duration(cfg.PrepareTimeoutSecondsOrDefault()) * time.Second
	err := coord.WaitForAllHostsPrepared(ctx, hostIDs, timeout)
	for range collectors {
		<-done
	}
	if err != nil {
		return fmt.Errorf("preparation phase failed: %w", err)
	}
	slog.Info("All hosts prepared")

	// Writing phase: single writer over every host's pending files.
	writer := newSegmentWriter(backupName, dest, coord, cfg.MaxSegmentSize(), logger)
	for _, c := range collectors {
		for _, p := range c.pendingWrites() {
			if ctx.Err() != nil {
				return fmt.Errorf("backup cancelled during write phase: %w", ctx.Err())
			}
			if err := writer.write(ctx, p); err != nil {
				return err
			}
		}
	}
	slog.Info("Write phase finished", "storedBytes", writer.written, "segments", len(coord.AllArchiveSuffixes()))

	m, err := buildManifest(coord, collectors, backupName, hostIDs)
	if err != nil {
		return err
	}
	m.StoredSize = writer.written

	if err := manifest.Write(ctx, dest, m); err != nil {
		return err
	}
	slog.Info("Backup completed successfully", "backup", backupName, "files", len(m.Entries), "totalBytes", m.TotalSize, "storedBytes", m.StoredSize)

	return nil
}

func buildManifest(coord coordination.BackupCoordination, collectors []*collector, backupName string, hostIDs []string) (*manifest.Backup, error) {
	m := &manifest.Backup{
		Name:            backupName,
		Datetime:        time.Now().Unix(),
		Hosts:           hostIDs,
		ArchiveSuffixes: coord.AllArchiveSuffixes(),
	}

	for _, info := range coord.AllFileInfos() {
		entry := manifest.Entry{
			Name:     info.FileName,
			Size:     info.Size,
			Checksum: info.Checksum,
			BaseSize: info.BaseSize,
		}
		if info.Size != 0 {
			canonical, ok := coord.GetFileInfoByChecksum(info.SizeAndChecksum())
			if !ok {
				return nil, fmt.Errorf("no canonical file info for %s", info.FileName)
			}
			entry.ArchiveSuffix = canonical.ArchiveSuffix
			entry.Reference = canonical.FileName != info.FileName
		}
		m.TotalSize += entry.Size
		m.Entries = append(m.Entries, entry)
	}

	tables := make(map[coordination.TableID]struct{})
	for _, c := range collectors {
		for _, t := range c.seenTables() {
			tables[t] = struct{}{}
		}
	}
	for t := range tables {
		m.Tables = append(m.Tables, manifest.Table{
			Database:  t.Database,
			Table:     t.Table,
			PartNames: coord.GetReplicatedPartNames("", t),
			DataPaths: coord.GetReplicatedTableDataPaths("", t),
		})
	}
	sort.Slice(m.Tables, func(i, j int) bool {
		if m.Tables[i].Database != m.Tables[j].Database {
			return m.Tables[i].Database < m.Tables[j].Database
		}
		return m.Tables[i].Table < m.Tables[j].Table
	})

	return m, nil
}

// Browse rebuilds a coordination view from a stored manifest so the
// backup's file tree can be queried with ListFiles semantics.
func Browse(ctx context.Context, d disk.Disk, backupName string) (coordination.BackupCoordination, *manifest.Backup, error) {
	m, err := manifest.Read(ctx, d, backupName)
	if err != nil {
		return nil, nil, err
	}

	coord := coordination.NewLocal(slog.Default())
	for _, e := range m.Entries {
		coord.AddFileInfo(coordination.FileInfo{
			FileName: e.Name,
			Size:     e.Size,
			Checksum: e.Checksum,
			BaseSize: e.BaseSize,
		})
		if e.ArchiveSuffix != "" {
			err := coord.UpdateFileInfo(coordination.FileInfo{
				FileName:      e.Name,
				Size:          e.Size,
				Checksum:      e.Checksum,
				ArchiveSuffix: e.ArchiveSuffix,
			})
			if err != nil {
				return nil, nil, err
			}
		}
	}
	return coord, m, nil
}

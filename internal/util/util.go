package util

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dtb/internal/config"
	"dtb/internal/disk"
	"dtb/internal/logging"
)

func LogDir(baseDir string) string {
	return filepath.Join(baseDir, "logs")
}

func SetupLogging(logPath string, consoleLevel slog.Level) (*slog.Logger, *os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logger, logFile, err := logging.NewLogger(logPath, consoleLevel)
	if err != nil {
		return nil, nil, err
	}

	return logger, logFile, nil
}

// OpenDisk creates the named disk from the configuration, resolving its
// settings through the named-collection store.
func OpenDisk(ctx context.Context, cfg *config.Config, name string) (disk.Disk, error) {
	diskCfg, err := cfg.FindDisk(name)
	if err != nil {
		return nil, err
	}
	store, err := cfg.Collections()
	if err != nil {
		return nil, err
	}
	settings, err := cfg.DiskSettings(diskCfg, store)
	if err != nil {
		return nil, err
	}

	factory := disk.NewFactory()
	disk.RegisterDefaults(factory)
	return factory.Create(ctx, diskCfg.Name, diskCfg.Type, settings)
}

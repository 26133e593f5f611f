package main

import (
	"context"
	"fmt"

	"dtb/internal/backup"
	"dtb/internal/config"
	"dtb/internal/util"
)

func restoreBackup(ctx context.Context, configPath, backupName, target string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dest, err := util.OpenDisk(ctx, cfg, cfg.Backup.DestinationDisk)
	if err != nil {
		return err
	}

	return backup.Restore(ctx, dest, backupName, target)
}

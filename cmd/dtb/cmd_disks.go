package main

import (
	"context"
	"fmt"

	"dtb/internal/config"
	"dtb/internal/util"
)

// checkDisks instantiates every configured disk to surface bad settings
// and unreachable backends before a backup is attempted.
func checkDisks(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var failed int
	for _, d := range cfg.Disks {
		if _, err := util.OpenDisk(ctx, cfg, d.Name); err != nil {
			fmt.Printf("FAIL %s (%s): %v\n", d.Name, d.Type, err)
			failed++
			continue
		}
		fmt.Printf("ok   %s (%s)\n", d.Name, d.Type)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d disks failed validation", failed, len(cfg.Disks))
	}
	return nil
}

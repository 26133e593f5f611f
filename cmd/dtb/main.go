package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"dtb/internal/backup"
)

func main() {
	cmd := &cli.Command{
		Name:    "dtb",
		Usage:   "Distributed Table Backup",
		Version: "0.1.0",
		Commands: []*cli.Command{
			{
				Name:  "backup",
				Usage: "Run a backup over all configured hosts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to configuration yaml file",
						Value: "dtb_config.yaml",
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Name of the backup to create.",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return backup.Run(ctx, cmd.String("config"), cmd.String("name"))
				},
			},
			{
				Name:  "list",
				Usage: "Browse the file tree of a finished backup",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to configuration yaml file",
						Value: "dtb_config.yaml",
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Name of the backup to browse.",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Path prefix to list under",
						Value: "",
					},
					&cli.BoolFlag{
						Name:  "recursive",
						Usage: "List full paths instead of one directory level",
						Value: false,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return listBackup(ctx, cmd.String("config"), cmd.String("name"),
						cmd.String("prefix"), cmd.Bool("recursive"))
				},
			},
			{
				Name:  "restore",
				Usage: "Restore a backup into a target directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to configuration yaml file",
						Value: "dtb_config.yaml",
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Name of the backup to restore.",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target",
						Usage:    "Directory to restore into.",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return restoreBackup(ctx, cmd.String("config"), cmd.String("name"), cmd.String("target"))
				},
			},
			{
				Name:  "disks",
				Usage: "Validate the configured disks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to configuration yaml file",
						Value: "dtb_config.yaml",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return checkDisks(ctx, cmd.String("config"))
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(130)
		}
		slog.Error("CLI error", "error", err)
		os.Exit(1)
	}
}

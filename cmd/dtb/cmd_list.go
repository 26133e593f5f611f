package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dtb/internal/backup"
	"dtb/internal/config"
	"dtb/internal/util"
)

type listEntry struct {
	Name          string `json:"name"`
	Size          uint64 `json:"size,omitempty"`
	Checksum      string `json:"blake3_hash,omitempty"`
	ArchiveSuffix string `json:"archive_suffix,omitempty"`
	Reference     bool   `json:"reference,omitempty"`
}

type listOutput struct {
	Backup      string      `json:"backup"`
	DatetimeStr string      `json:"datetime_str"`
	Hosts       []string    `json:"hosts"`
	Prefix      string      `json:"prefix"`
	Entries     []listEntry `json:"entries"`
	Summary     struct {
		TotalFiles   int    `json:"total_files"`
		TotalBytes   uint64 `json:"total_bytes"`
		StoredBytes  uint64 `json:"stored_bytes"`
		ArchiveCount int    `json:"archive_count"`
	} `json:"summary"`
}

func listBackup(ctx context.Context, configPath, backupName, prefix string, recursive bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dest, err := util.OpenDisk(ctx, cfg, cfg.Backup.DestinationDisk)
	if err != nil {
		return err
	}

	coord, m, err := backup.Browse(ctx, dest, backupName)
	if err != nil {
		return fmt.Errorf("failed to browse backup %s: %w", backupName, err)
	}

	output := listOutput{
		Backup:      m.Name,
		DatetimeStr: time.Unix(m.Datetime, 0).Format("2006-01-02 15:04:05"),
		Hosts:       m.Hosts,
		Prefix:      prefix,
		Entries:     []listEntry{},
	}

	references := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		references[e.Name] = e.Reference
	}

	terminator := "/"
	if recursive {
		terminator = ""
	}
	for _, name := range coord.ListFiles(prefix, terminator) {
		entry := listEntry{Name: name}
		// Only full paths resolve to file metadata; one-level entries
		// may be directories.
		if info, ok := coord.GetFileInfo(prefix + name); ok {
			entry.Size = info.Size
			entry.Checksum = info.Checksum
			entry.ArchiveSuffix = info.ArchiveSuffix
			entry.Reference = references[prefix+name]
		}
		output.Entries = append(output.Entries, entry)
	}

	output.Summary.TotalFiles = len(m.Entries)
	output.Summary.TotalBytes = m.TotalSize
	output.Summary.StoredBytes = m.StoredSize
	output.Summary.ArchiveCount = len(m.ArchiveSuffixes)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

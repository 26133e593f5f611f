package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"dtb/internal/collections"
)

type Host struct {
	ID        string `yaml:"id"`
	SourceDir string `yaml:"source_dir"`
}

type DiskConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Settings are given inline or as a reference to a named
	// collection. Inline settings win when both are set.
	Settings   map[string]any `yaml:"settings,omitempty"`
	Collection string         `yaml:"collection,omitempty"`
}

type BackupConfig struct {
	DestinationDisk       string `yaml:"destination_disk"`
	MaxSegmentSizeMB      int64  `yaml:"max_segment_size_mb,omitempty"`
	PrepareTimeoutSeconds int64  `yaml:"prepare_timeout_seconds,omitempty"`
	CollectWorkers        int    `yaml:"collect_workers,omitempty"`
}

type Config struct {
	BaseDir          string                    `yaml:"base_dir"`
	LogLevel         string                    `yaml:"log_level,omitempty"`
	Hosts            []Host                    `yaml:"hosts"`
	Disks            []DiskConfig              `yaml:"disks"`
	NamedCollections map[string]map[string]any `yaml:"named_collections,omitempty"`
	Backup           BackupConfig              `yaml:"backup"`
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	if len(c.Hosts) == 0 {
		return fmt.Errorf("at least one host is required")
	}
	seen := make(map[string]bool)
	for i, h := range c.Hosts {
		if h.ID == "" {
			return fmt.Errorf("hosts[%d].id is required", i)
		}
		if h.SourceDir == "" {
			return fmt.Errorf("hosts[%d].source_dir is required", i)
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate host id: %s", h.ID)
		}
		seen[h.ID] = true
	}
	if len(c.Disks) == 0 {
		return fmt.Errorf("at least one disk is required")
	}
	for i, d := range c.Disks {
		if d.Name == "" {
			return fmt.Errorf("disks[%d].name is required", i)
		}
		if d.Type == "" {
			return fmt.Errorf("disks[%d].type is required", i)
		}
		if d.Collection != "" {
			if _, ok := c.NamedCollections[d.Collection]; !ok {
				return fmt.Errorf("disks[%d] references unknown named collection: %s", i, d.Collection)
			}
		}
	}
	if c.Backup.DestinationDisk == "" {
		return fmt.Errorf("backup.destination_disk is required")
	}
	if _, err := c.FindDisk(c.Backup.DestinationDisk); err != nil {
		return err
	}
	return nil
}

func (c *Config) FindDisk(name string) (*DiskConfig, error) {
	for i := range c.Disks {
		if c.Disks[i].Name == name {
			return &c.Disks[i], nil
		}
	}
	return nil, fmt.Errorf("disk not found: %s", name)
}

// Collections builds the named-collection store from the config.
func (c *Config) Collections() (*collections.Store, error) {
	return collections.NewStore(c.NamedCollections)
}

// DiskSettings resolves a disk's settings to a typed collection, either
// from the inline settings map or from its named-collection reference.
func (c *Config) DiskSettings(d *DiskConfig, store *collections.Store) (*collections.Collection, error) {
	if len(d.Settings) > 0 {
		return collections.FromMap(d.Name, d.Settings)
	}
	if d.Collection != "" {
		return store.Get(d.Collection)
	}
	return collections.New(d.Name), nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) MaxSegmentSize() int64 {
	if c.Backup.MaxSegmentSizeMB > 0 {
		return c.Backup.MaxSegmentSizeMB * 1024 * 1024
	}
	return 64 * 1024 * 1024
}

func (c *Config) PrepareTimeoutSecondsOrDefault() int64 {
	if c.Backup.PrepareTimeoutSeconds > 0 {
		return c.Backup.PrepareTimeoutSeconds
	}
	return 300
}

func (c *Config) Workers() int {
	if c.Backup.CollectWorkers > 0 {
		return c.Backup.CollectWorkers
	}
	return 4
}

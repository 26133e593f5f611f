package manifest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"dtb/internal/disk"
)

// Path returns the manifest location for a backup on its disk.
func Path(backupName string) string {
	return backupName + "/manifest.yaml"
}

func Encode(m *Backup) ([]byte, error) {
	return yaml.Marshal(m)
}

func Decode(data []byte) (*Backup, error) {
	var m Backup
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Write stores the manifest on the given disk.
func Write(ctx context.Context, d disk.Disk, m *Backup) error {
	data, err := Encode(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := d.WriteFile(ctx, Path(m.Name), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Read loads a backup's manifest from the given disk.
func Read(ctx context.Context, d disk.Disk, backupName string) (*Backup, error) {
	rc, err := d.ReadFile(ctx, Path(backupName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtb/internal/config"
	"dtb/internal/disk"
)

func TestRestoreRoundTrip(t *testing.T) {
	host1 := t.TempDir()
	host2 := t.TempDir()

	writeSourceFile(t, host1, "db1/events/part-1/col.bin", "column-data")
	writeSourceFile(t, host1, "empty.txt", "")
	writeSourceFile(t, host2, "db1/events/part-2/col.bin", "column-data")
	writeSourceFile(t, host2, "db1/events/part-2/idx.bin", "index-data")

	cfg := &config.Config{
		BaseDir: t.TempDir(),
		Hosts: []config.Host{
			{ID: "replica-1", SourceDir: host1},
			{ID: "replica-2", SourceDir: host2},
		},
		Backup: config.BackupConfig{DestinationDisk: "mem"},
	}

	dest := disk.NewMemory("mem")
	ctx := context.Background()
	require.NoError(t, run(ctx, cfg, dest, "snap", testLogger()))

	target := t.TempDir()
	require.NoError(t, Restore(ctx, dest, "snap", target))

	for name, want := range map[string]string{
		"db1/events/part-1/col.bin": "column-data",
		"db1/events/part-2/col.bin": "column-data",
		"db1/events/part-2/idx.bin": "index-data",
		"empty.txt":                 "",
	} {
		data, err := os.ReadFile(filepath.Join(target, filepath.FromSlash(name)))
		require.NoError(t, err, name)
		assert.Equal(t, want, string(data), name)
	}
}

func TestRestoreUnknownBackup(t *testing.T) {
	err := Restore(context.Background(), disk.NewMemory("mem"), "missing", t.TempDir())
	assert.Error(t, err)
}

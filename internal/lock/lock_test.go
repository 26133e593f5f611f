package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "dtb.lock")

	release, err := Acquire(lockPath, "nightly")
	require.NoError(t, err)

	entry, err := readLock(lockPath)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, os.Getpid(), entry.Pid)
	assert.Equal(t, "nightly", entry.Backup)

	// Held by a live process: second acquire fails.
	_, err = Acquire(lockPath, "other")
	assert.ErrorContains(t, err, "already running")

	require.NoError(t, release())

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "dtb.lock")

	// A pid that cannot exist: locks from dead processes are stale.
	stale := &Entry{Pid: 1 << 30, Backup: "old", StartedAt: "2024-01-01T00:00:00Z"}
	require.NoError(t, writeLock(lockPath, stale))

	release, err := Acquire(lockPath, "fresh")
	require.NoError(t, err)
	defer release()

	entry, err := readLock(lockPath)
	require.NoError(t, err)
	assert.Equal(t, "fresh", entry.Backup)
	assert.Equal(t, os.Getpid(), entry.Pid)
}

func TestReleaseIdempotent(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "dtb.lock")

	release, err := Acquire(lockPath, "b")
	require.NoError(t, err)

	require.NoError(t, release())
	require.NoError(t, release())
}

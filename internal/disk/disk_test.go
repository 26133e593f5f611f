package disk

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtb/internal/collections"
)

func readAll(t *testing.T, d Disk, path string) string {
	t.Helper()
	rc, err := d.ReadFile(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func testDiskBehavior(t *testing.T, d Disk) {
	ctx := context.Background()

	require.NoError(t, d.WriteFile(ctx, "a/b/file1", strings.NewReader("content-1")))
	require.NoError(t, d.WriteFile(ctx, "a/file2", strings.NewReader("content-two")))

	assert.Equal(t, "content-1", readAll(t, d, "a/b/file1"))

	exists, err := d.Exists(ctx, "a/file2")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.Exists(ctx, "a/missing")
	require.NoError(t, err)
	assert.False(t, exists)

	size, err := d.Size(ctx, "a/file2")
	require.NoError(t, err)
	assert.Equal(t, int64(len("content-two")), size)

	paths, err := d.ListPrefix(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/file1", "a/file2"}, paths)

	_, err = d.ReadFile(ctx, "a/missing")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, d.Remove(ctx, "a/file2"))
	exists, err = d.Exists(ctx, "a/file2")
	require.NoError(t, err)
	assert.False(t, exists)

	// Overwrite replaces content.
	require.NoError(t, d.WriteFile(ctx, "a/b/file1", strings.NewReader("rewritten")))
	assert.Equal(t, "rewritten", readAll(t, d, "a/b/file1"))
}

func TestMemoryDisk(t *testing.T) {
	testDiskBehavior(t, NewMemory("mem"))
}

func TestLocalDisk(t *testing.T) {
	settings := collections.New("store")
	settings.Set("path", collections.StringValue(t.TempDir()))

	d, err := newLocal(context.Background(), "store", settings)
	require.NoError(t, err)
	testDiskBehavior(t, d)
}

func TestLocalDiskMissingPath(t *testing.T) {
	_, err := newLocal(context.Background(), "store", collections.New("store"))
	assert.Error(t, err)
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	RegisterDefaults(f)

	d, err := f.Create(context.Background(), "mem1", "memory", collections.New("mem1"))
	require.NoError(t, err)
	assert.Equal(t, "mem1", d.Name())

	_, err = f.Create(context.Background(), "x", "tape", collections.New("x"))
	assert.ErrorContains(t, err, "unknown disk kind")

	assert.Panics(t, func() {
		f.Register("memory", newMemory)
	})
}

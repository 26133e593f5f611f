package disk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtb/internal/collections"
)

func newTestWebDisk(t *testing.T) Disk {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/backups/full/manifest.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("name: full\n"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	settings := collections.New("web")
	settings.Set("url", collections.StringValue(server.URL))

	d, err := newWeb(context.Background(), "web", settings)
	require.NoError(t, err)
	return d
}

func TestWebDiskRead(t *testing.T) {
	d := newTestWebDisk(t)
	ctx := context.Background()

	assert.Equal(t, "name: full\n", readAll(t, d, "backups/full/manifest.yaml"))

	exists, err := d.Exists(ctx, "backups/full/manifest.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.Exists(ctx, "backups/missing")
	require.NoError(t, err)
	assert.False(t, exists)

	size, err := d.Size(ctx, "backups/full/manifest.yaml")
	require.NoError(t, err)
	assert.Equal(t, int64(len("name: full\n")), size)

	_, err = d.ReadFile(ctx, "backups/missing")
	assert.True(t, os.IsNotExist(err))
}

func TestWebDiskIsReadOnly(t *testing.T) {
	d := newTestWebDisk(t)
	ctx := context.Background()

	err := d.WriteFile(ctx, "x", nil)
	assert.ErrorIs(t, err, ErrReadOnly)

	err = d.Remove(ctx, "x")
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = d.ListPrefix(ctx, "")
	assert.Error(t, err)
}

package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"dtb/internal/collections"
)

// ErrReadOnly is returned by mutating operations on read-only disks.
var ErrReadOnly = errors.New("disk is read-only")

// webDisk reads files from a filesystem exposed over HTTP. It is
// read-only: restores and browsing only.
type webDisk struct {
	name    string
	baseURL string
	client  *http.Client
}

func newWeb(_ context.Context, name string, settings *collections.Collection) (Disk, error) {
	baseURL, err := settings.GetString("url")
	if err != nil {
		return nil, err
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	timeoutSec, err := settings.OptInt64("timeout_seconds", 30)
	if err != nil {
		return nil, err
	}
	return &webDisk{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

func (d *webDisk) Name() string { return d.name }

func (d *webDisk) url(path string) string {
	return d.baseURL + "/" + path
}

func (d *webDisk) WriteFile(context.Context, string, io.Reader) error {
	return ErrReadOnly
}

func (d *webDisk) ReadFile(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url(path), nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, path)
	}
	return resp.Body, nil
}

func (d *webDisk) head(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.url(path), nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to head %s: %w", path, err)
	}
	resp.Body.Close()
	return resp, nil
}

func (d *webDisk) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := d.head(ctx, path)
	if err != nil {
		return false, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}
}

func (d *webDisk) Size(ctx context.Context, path string) (int64, error) {
	resp, err := d.head(ctx, path)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return 0, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}
	return resp.ContentLength, nil
}

// ListPrefix is not supported: a plain HTTP filesystem has no listing
// protocol. Callers browse through a backup manifest instead.
func (d *webDisk) ListPrefix(context.Context, string) ([]string, error) {
	return nil, errors.New("web disk does not support listing")
}

func (d *webDisk) Remove(context.Context, string) error {
	return ErrReadOnly
}

package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists uploaded files by name.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
}

// DiskStore writes files into a local directory that is served under the
// public uploads URL.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("uploads directory is required")
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Dir() string { return d.dir }

func (d *DiskStore) Put(_ context.Context, name string, data []byte) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid upload name %q", name)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close upload: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod upload: %w", err)
	}
	return os.Rename(tmp.Name(), filepath.Join(d.dir, name))
}

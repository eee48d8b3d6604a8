package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalImageStore keeps images on disk; the HTTP server exposes the directory
// under URLPrefix.
type LocalImageStore struct {
	dir       string
	urlPrefix string
}

func NewLocalImageStore(dir, urlPrefix string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{dir: dir, urlPrefix: urlPrefix}, nil
}

func (s *LocalImageStore) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.urlPrefix + "/" + name, nil
}

func (s *LocalImageStore) Dir() string {
	return s.dir
}

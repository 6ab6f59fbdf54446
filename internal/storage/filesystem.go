// Package storage writes operator backups: per-event export documents on
// the local filesystem, optionally bundled into one zip archive.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoRoot     = errors.New("storage: root directory is required")
	ErrInvalidKey = errors.New("storage: invalid key")
)

// FileStore writes objects under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates root when it does not exist.
func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, ErrNoRoot
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

// Write stores data at key and returns the cleaned key. The file is
// written next to its target and renamed so readers never see a partial
// backup.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close %s: %w", clean, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("storage: rename %s: %w", clean, err)
	}
	return clean, nil
}

// CleanKey normalizes key to a slash separated relative path that cannot
// leave the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimLeft(strings.TrimPrefix(key, "./"), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

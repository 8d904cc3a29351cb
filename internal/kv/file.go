package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps each key in its own file under a base directory. It is the
// default backend for development and single-machine deployments.
type FileStore struct {
	basePath string
	maxBytes int64
}

// NewFileStore initializes a FileStore rooted at basePath. maxValueBytes
// bounds the size of a single stored value; zero disables the bound. The
// bound exists so oversized galleries surface the same quota failure mode a
// browser's storage would.
func NewFileStore(basePath string, maxValueBytes int64) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("kv: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("kv: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, maxBytes: maxValueBytes}, nil
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: read %q: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxBytes > 0 && int64(len(value)) > s.maxBytes {
		return ErrQuotaExceeded
	}
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	// Write-then-rename keeps the whole-value overwrite atomic: a crashed
	// write never leaves a truncated gallery behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("kv: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("kv: commit %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("kv: remove %q: %w", key, err)
	}
	return nil
}

// keyPath sanitizes the key and prevents escaping the storage root.
func (s *FileStore) keyPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("kv: key is required")
	}
	cleaned := filepath.Clean(strings.TrimLeft(strings.ReplaceAll(key, "\\", "/"), "/"))
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("kv: invalid key %q", key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)+".json"), nil
}

var _ Store = (*FileStore)(nil)

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gitlab_helper/internal/model"
)

// FileStore implements DocumentStore on a local directory
type FileStore struct {
	dir string
}

// NewFileStore creates a new FileStore rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid document key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

// Load reads the document stored under key
func (s *FileStore) Load(_ context.Context, key string) (*model.IssueExchangeModel, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}
	return FormatOf(key).Decode(raw)
}

// Save writes data under key, replacing an existing document
func (s *FileStore) Save(_ context.Context, key string, data *model.IssueExchangeModel) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	raw, err := FormatOf(key).Encode(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(p, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", key, err)
	}
	return nil
}

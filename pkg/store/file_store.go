package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists each collection as a JSON file under a base directory.
// Saves write to a temp file and rename into place, so a collection is
// replaced whole or not at all.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("store base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Load reads a collection file. A missing file means the collection has
// never been saved.
func (f *FileStore) Load(_ context.Context, collection string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(collection))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read collection: %w", err)
	}
	return data, true, nil
}

// Save replaces the collection file atomically.
func (f *FileStore) Save(_ context.Context, collection string, data []byte) error {
	target := f.path(collection)
	tmp, err := os.CreateTemp(f.basePath, collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write collection: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace collection: %w", err)
	}
	return nil
}

func (f *FileStore) path(collection string) string {
	name := strings.TrimSpace(collection)
	if name == "" {
		name = "collection"
	}
	return filepath.Join(f.basePath, filepath.Base(name)+".json")
}

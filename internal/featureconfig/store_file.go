package featureconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the document in a single JSON file. Writes go through a
// temp file followed by rename, so readers never observe a torn document.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path. The parent
// directory is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the stored document. A missing file or an undecodable payload
// returns ErrNoDocument rather than an error the caller must interpret.
func (s *FileStore) Load(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Document{}, ErrNoDocument
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return Document{}, ErrNoDocument
	}
	return doc, nil
}

// Save atomically replaces the stored document.
func (s *FileStore) Save(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("featureconfig: encode document: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("featureconfig: create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("featureconfig: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("featureconfig: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("featureconfig: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("featureconfig: replace cache file: %w", err)
	}
	return nil
}

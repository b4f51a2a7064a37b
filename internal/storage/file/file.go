// Package file stores the book collection as a JSON document on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"readingtracker/internal/models"
	"readingtracker/internal/storage"
)

// FileStorage keeps the collection in a single JSON file. Writes go to a
// temporary file that is synced and renamed over the target.
type FileStorage struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileStorage creates a file-backed store at path
func NewFileStorage(path string, logger *zap.Logger) *FileStorage {
	return &FileStorage{path: path, logger: logger}
}

// Initialize makes sure the parent directory exists
func (s *FileStorage) Initialize(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}

// Load reads the collection. A missing file is an empty collection.
func (s *FileStorage) Load(ctx context.Context) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Book{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return storage.Decode(data)
}

// Save atomically replaces the file with the encoded collection
func (s *FileStorage) Save(ctx context.Context, books []models.Book) error {
	data, err := storage.Encode(books)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := atomicWriteFile(s.path, data); err != nil {
		s.logger.Error("Failed to write collection file", zap.Error(err), zap.String("path", s.path))
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

// Close does nothing; every Save is already durable
func (s *FileStorage) Close() error {
	return nil
}

func atomicWriteFile(path string, data []byte) error {
	tempFile := path + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, path)
}

var _ storage.Storage = (*FileStorage)(nil)

package storage

import (
	"context"

	"readingtracker/internal/models"
)

// StorageKey is the fixed key the book collection is stored under
const StorageKey = "reading-tracker-books"

// Storage defines the persistence contract for the book collection
type Storage interface {
	// Load returns the stored collection. A missing collection yields an
	// empty slice; an undecodable one yields an error wrapping ErrCorrupt.
	Load(ctx context.Context) ([]models.Book, error)

	// Save replaces the stored collection with books
	Save(ctx context.Context, books []models.Book) error

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

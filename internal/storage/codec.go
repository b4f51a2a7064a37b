package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"readingtracker/internal/models"
)

// ErrCorrupt reports stored data that cannot be decoded as a collection
var ErrCorrupt = errors.New("stored collection is corrupt")

// Encode serializes the collection. A nil collection is written as an
// empty array so readers never see "null".
func Encode(books []models.Book) ([]byte, error) {
	if books == nil {
		books = []models.Book{}
	}
	data, err := json.Marshal(books)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	return data, nil
}

// Decode parses a stored collection. Empty input is an empty collection.
func Decode(data []byte) ([]models.Book, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Book{}, nil
	}
	var books []models.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return []models.Book{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

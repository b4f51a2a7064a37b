package stubs

import (
	"context"
	"sync"

	"readingtracker/internal/models"
	"readingtracker/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing.
// It keeps the encoded payload so every Load goes through the codec the
// real adapters use.
type MockDB struct {
	mu        sync.RWMutex
	payload   []byte
	saveCount int
	saveErr   error
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{}
}

// Initialize does nothing for mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// Load decodes the stored payload
func (m *MockDB) Load(ctx context.Context) ([]models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return storage.Decode(m.payload)
}

// Save encodes and stores the whole collection
func (m *MockDB) Save(ctx context.Context, books []models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	data, err := storage.Encode(books)
	if err != nil {
		return err
	}
	m.payload = data
	m.saveCount++
	return nil
}

// SetRaw replaces the stored payload, e.g. with corrupt bytes
func (m *MockDB) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = data
}

// Raw returns a copy of the stored payload
func (m *MockDB) Raw() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, len(m.payload))
	copy(out, m.payload)
	return out
}

// SaveCount returns how many saves succeeded
func (m *MockDB) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCount
}

// FailSaves makes every following Save return err (nil restores saving)
func (m *MockDB) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

var _ storage.Storage = (*MockDB)(nil)

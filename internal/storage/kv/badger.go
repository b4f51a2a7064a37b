// Package kv stores the book collection in an embedded BadgerDB.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"readingtracker/internal/models"
	"readingtracker/internal/storage"
)

// Config holds the options for opening the store
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM, for tests
	InMemory bool

	// SyncWrites fsyncs every write
	SyncWrites bool
}

// BadgerDB keeps the encoded collection under storage.StorageKey
type BadgerDB struct {
	db     *badger.DB
	logger *zap.Logger
}

// badgerLogger routes BadgerDB's internal logging to zap
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }

// NewBadgerDB opens the store described by cfg
func NewBadgerDB(cfg Config, logger *zap.Logger) (*BadgerDB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent badger database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{s: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &BadgerDB{db: db, logger: logger}, nil
}

// Initialize is a no-op, badger needs no schema
func (s *BadgerDB) Initialize(ctx context.Context) error {
	return nil
}

// Load reads the collection. A missing key is an empty collection.
func (s *BadgerDB) Load(ctx context.Context) ([]models.Book, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storage.StorageKey))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []models.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return storage.Decode(payload)
}

// Save writes the encoded collection in a single transaction
func (s *BadgerDB) Save(ctx context.Context, books []models.Book) error {
	data, err := storage.Encode(books)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(storage.StorageKey), data)
	})
	if err != nil {
		s.logger.Error("Failed to save collection", zap.Error(err))
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// Close closes the database
func (s *BadgerDB) Close() error {
	return s.db.Close()
}

var _ storage.Storage = (*BadgerDB)(nil)

// Package sqlite stores the book collection in a SQLite key/value table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"readingtracker/internal/models"
	"readingtracker/internal/storage"
	"readingtracker/migrations"
)

// SQLiteDB keeps one row per storage key holding the encoded collection
type SQLiteDB struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteDB opens (or creates) the database file at path
func NewSQLiteDB(path string, logger *zap.Logger) (*SQLiteDB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &SQLiteDB{db: db, logger: logger}, nil
}

// Initialize applies the embedded schema migrations
func (s *SQLiteDB) Initialize(ctx context.Context) error {
	results, err := migrations.Up(ctx, s.db, migrations.SQLite)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		s.logger.Info("Applied SQLite migrations", zap.Int("count", len(results)))
	}
	return nil
}

// Load reads the collection stored under storage.StorageKey
func (s *SQLiteDB) Load(ctx context.Context) ([]models.Book, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM collections WHERE key = ?`, storage.StorageKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return storage.Decode([]byte(payload))
}

// Save upserts the encoded collection
func (s *SQLiteDB) Save(ctx context.Context, books []models.Book) error {
	data, err := storage.Encode(books)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	err = retryOnContention(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO collections (key, payload, saved_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
			storage.StorageKey, string(data), now,
		)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to save collection", zap.Error(err))
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migrations and tests
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

var _ storage.Storage = (*SQLiteDB)(nil)

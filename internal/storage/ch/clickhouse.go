package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"readingtracker/internal/models"
	"readingtracker/internal/storage"
)

// ClickHouseDB appends one row per save to the collections table and
// reads back the newest row for the storage key
type ClickHouseDB struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool, logger *zap.Logger) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, logger: logger}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	// Tables are managed via migrations (see migrations/clickhouse)
	return nil
}

// Load returns the most recently saved collection
func (db *ClickHouseDB) Load(ctx context.Context) ([]models.Book, error) {
	var payload string
	err := db.conn.QueryRow(ctx,
		`SELECT payload FROM collections WHERE key = ? ORDER BY saved_at DESC LIMIT 1`,
		storage.StorageKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	return storage.Decode([]byte(payload))
}

// Save inserts a new version of the collection
func (db *ClickHouseDB) Save(ctx context.Context, books []models.Book) error {
	data, err := storage.Encode(books)
	if err != nil {
		return err
	}

	err = db.conn.Exec(ctx, `INSERT INTO collections (key, payload, saved_at) VALUES (?, ?, ?)`,
		storage.StorageKey, string(data), time.Now().UTC())
	if err != nil {
		db.logger.Error("Failed to save collection to ClickHouse",
			zap.Error(err),
			zap.Int("book_count", len(books)),
		)
		return fmt.Errorf("failed to save collection: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

var _ storage.Storage = (*ClickHouseDB)(nil)

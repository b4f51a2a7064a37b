// Package migrations embeds the goose SQL migrations for the SQL backends.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// Backends with a migrations directory
const (
	ClickHouse = "clickhouse"
	SQLite     = "sqlite"
)

//go:embed clickhouse/*.sql sqlite/*.sql
var FS embed.FS

// Dialect maps a backend to its goose dialect
func Dialect(backend string) (goose.Dialect, error) {
	switch backend {
	case ClickHouse:
		return goose.DialectClickHouse, nil
	case SQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("no migrations for backend %q", backend)
	}
}

// Up applies every pending migration for backend and returns the results
func Up(ctx context.Context, db *sql.DB, backend string) ([]*goose.MigrationResult, error) {
	dialect, err := Dialect(backend)
	if err != nil {
		return nil, err
	}
	dir, err := fs.Sub(FS, backend)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(dialect, db, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("failed to apply %s migrations: %w", backend, err)
	}
	return results, nil
}

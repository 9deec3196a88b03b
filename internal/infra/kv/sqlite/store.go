// Package sqlite implements a kv Store on an embedded SQLite file. The schema
// is managed by goose migrations embedded in the binary.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"storefront/internal/kv/core"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store persists values in a single `kv` table.
type Store struct {
	db   *sqlx.DB
	path string
}

// New opens (creating if needed) the SQLite database at path and applies all
// pending migrations.
func New(path string) (*Store, error) {
	if path == "" {
		path = "storefront.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("connecting to db : %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting dialect for migrations : %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying migration : %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close terminates the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing kv db : %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return core.ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	query := `INSERT INTO kv(key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upserting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("key %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("deleting %s: %w", key, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("fetching rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// List filters prefixes in Go so keys containing LIKE wildcards match literally.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var all []string
	if err := s.db.SelectContext(ctx, &all, `SELECT key FROM kv ORDER BY key`); err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Package sqlite provides a SQLite-backed implementation of the storage.KV
// interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/paulcherng/SecretSantaPlatform/internal/storage"
)

// Ensure Store implements storage.KV
var _ storage.KV = (*Store)(nil)

// Store implements storage.KV using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Wait out the single-writer lock instead of failing fast
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves a value and its version token.
func (s *Store) Get(ctx context.Context, key string) (storage.Value, error) {
	var value storage.Value
	err := s.db.QueryRowContext(ctx,
		"SELECT value, version FROM kv WHERE key = ?", key,
	).Scan(&value.Data, &value.Version)
	if err == sql.ErrNoRows {
		return storage.Value{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Value{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// MultiGet retrieves several keys at once; missing keys are simply absent
// from the result.
func (s *Store) MultiGet(ctx context.Context, keys ...string) (map[string]storage.Value, error) {
	result := make(map[string]storage.Value, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(keys)-1) + "?"
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value, version FROM kv WHERE key IN ("+placeholders+")", args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to multi-get: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value storage.Value
		if err := rows.Scan(&key, &value.Data, &value.Version); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate values: %w", err)
	}
	return result, nil
}

// Exists reports whether the key holds a value or a list.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM kv WHERE key = ?)
		        OR EXISTS(SELECT 1 FROM kv_lists WHERE list_key = ?)`,
		key, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return exists, nil
}

// ListRange returns the list elements between start and stop inclusive,
// with negative indices counting from the end.
func (s *Store) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT value FROM kv_lists WHERE list_key = ? ORDER BY pos", key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", key, err)
	}
	defer rows.Close()

	var elements []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan list element: %w", err)
		}
		elements = append(elements, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate list %s: %w", key, err)
	}

	n := int64(len(elements))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return []string{}, nil
	}
	return elements[start : stop+1], nil
}

// Begin starts a transaction. Operations are queued in memory and applied
// in order inside a single SQLite transaction on Commit.
func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	return &tx{store: s}, nil
}

// tx queues operations as closures over a database transaction.
type tx struct {
	store *Store
	ops   []func(context.Context, *sql.Tx) error
	done  bool
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) Set(key string, value []byte) {
	t.ops = append(t.ops, func(ctx context.Context, dbTx *sql.Tx) error {
		_, err := dbTx.ExecContext(ctx,
			`INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
		return nil
	})
}

func (t *tx) SetVersioned(key string, value []byte, expectedVersion int64) {
	t.ops = append(t.ops, func(ctx context.Context, dbTx *sql.Tx) error {
		var result sql.Result
		var err error
		if expectedVersion == 0 {
			// Version 0 means the caller read a missing key; the write
			// must create it, and lose to any concurrent creator.
			result, err = dbTx.ExecContext(ctx,
				"INSERT INTO kv (key, value, version) VALUES (?, ?, 1) ON CONFLICT(key) DO NOTHING",
				key, value,
			)
		} else {
			result, err = dbTx.ExecContext(ctx,
				"UPDATE kv SET value = ?, version = version + 1 WHERE key = ? AND version = ?",
				value, key, expectedVersion,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		if affected == 0 {
			return fmt.Errorf("key %s at version %d: %w", key, expectedVersion, storage.ErrVersionMismatch)
		}
		return nil
	})
}

func (t *tx) Delete(key string) {
	t.ops = append(t.ops, func(ctx context.Context, dbTx *sql.Tx) error {
		if _, err := dbTx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		if _, err := dbTx.ExecContext(ctx, "DELETE FROM kv_lists WHERE list_key = ?", key); err != nil {
			return fmt.Errorf("failed to delete list %s: %w", key, err)
		}
		return nil
	})
}

func (t *tx) ListPrepend(key, value string) {
	t.ops = append(t.ops, func(ctx context.Context, dbTx *sql.Tx) error {
		_, err := dbTx.ExecContext(ctx,
			`INSERT INTO kv_lists (list_key, pos, value)
			 VALUES (?, COALESCE((SELECT MIN(pos) FROM kv_lists WHERE list_key = ?), 1) - 1, ?)`,
			key, key, value,
		)
		if err != nil {
			return fmt.Errorf("failed to prepend to %s: %w", key, err)
		}
		return nil
	})
}

func (t *tx) ListRemove(key, value string) {
	t.ops = append(t.ops, func(ctx context.Context, dbTx *sql.Tx) error {
		_, err := dbTx.ExecContext(ctx,
			"DELETE FROM kv_lists WHERE list_key = ? AND value = ?", key, value,
		)
		if err != nil {
			return fmt.Errorf("failed to remove from %s: %w", key, err)
		}
		return nil
	})
}

// Commit applies the queued operations in one SQLite transaction.
func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true

	dbTx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, op := range t.ops {
		if err := op(ctx, dbTx); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards the queued operations.
func (t *tx) Rollback() error {
	t.done = true
	t.ops = nil
	return nil
}

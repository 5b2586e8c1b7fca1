// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("storage: key not found")

	// ErrVersionMismatch is returned by Tx.Commit when a versioned write
	// found the key changed since it was read.
	ErrVersionMismatch = errors.New("storage: version mismatch")
)

// Value is a stored value together with its concurrency token. Version
// starts at 1 and increments on every write, so a Get/Commit pair can detect
// a concurrent writer.
type Value struct {
	Data    []byte
	Version int64
}

// KV defines the keyed-store interface the event store is built on: plain
// values, ordered lists, and all-or-nothing multi-key transactions.
// This abstraction allows swapping storage backends (SQLite, Redis, etc.)
// without changing the layers above.
type KV interface {
	// Get retrieves a value and its version. Returns ErrNotFound if the
	// key does not exist.
	Get(ctx context.Context, key string) (Value, error)

	// MultiGet retrieves several keys at once. Missing keys are absent
	// from the result map rather than an error.
	MultiGet(ctx context.Context, keys ...string) (map[string]Value, error)

	// Exists reports whether the key holds a value.
	Exists(ctx context.Context, key string) (bool, error)

	// ListRange returns the list elements between start and stop
	// inclusive. Negative indices count from the end, -1 being the last
	// element. A missing list yields an empty slice.
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Begin starts a transaction. Queued operations are applied
	// atomically on Commit: either all changes become visible or none.
	Begin(ctx context.Context) (Tx, error)

	// Close releases any resources held by the store.
	Close() error
}

// Tx queues mutations for atomic application. Operations never fail when
// queued; Commit applies them in order and reports the first failure,
// in which case nothing is applied.
type Tx interface {
	// Set writes a value unconditionally, bumping its version.
	Set(key string, value []byte)

	// SetVersioned writes a value only if the key's current version still
	// equals expectedVersion; otherwise Commit fails with
	// ErrVersionMismatch and the whole transaction is discarded.
	SetVersioned(key string, value []byte, expectedVersion int64)

	// Delete removes a key (value or list). Deleting a missing key is not
	// an error.
	Delete(key string)

	// ListPrepend pushes a value onto the front of a list, creating the
	// list if needed.
	ListPrepend(key, value string)

	// ListRemove removes all occurrences of value from a list.
	ListRemove(key, value string)

	// Commit applies the queued operations atomically.
	Commit(ctx context.Context) error

	// Rollback discards the transaction. Safe to call after Commit.
	Rollback() error
}

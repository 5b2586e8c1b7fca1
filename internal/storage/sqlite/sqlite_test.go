package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/paulcherng/SecretSantaPlatform/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func commit(t *testing.T, ctx context.Context, store *Store, build func(storage.Tx)) {
	t.Helper()
	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	build(tx)
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func TestStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Get on missing key returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Set then Get round-trips with version 1", func(t *testing.T) {
		commit(t, ctx, store, func(tx storage.Tx) {
			tx.Set("greeting", []byte("hello"))
		})

		value, err := store.Get(ctx, "greeting")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(value.Data) != "hello" {
			t.Errorf("value = %q, want %q", value.Data, "hello")
		}
		if value.Version != 1 {
			t.Errorf("version = %d, want 1", value.Version)
		}
	})

	t.Run("Set bumps version on overwrite", func(t *testing.T) {
		commit(t, ctx, store, func(tx storage.Tx) {
			tx.Set("greeting", []byte("hi"))
		})

		value, err := store.Get(ctx, "greeting")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if value.Version != 2 {
			t.Errorf("version = %d, want 2", value.Version)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		exists, err := store.Exists(ctx, "greeting")
		if err != nil || !exists {
			t.Errorf("Exists(greeting) = %v, %v, want true, nil", exists, err)
		}
		exists, err = store.Exists(ctx, "missing")
		if err != nil || exists {
			t.Errorf("Exists(missing) = %v, %v, want false, nil", exists, err)
		}
	})

	t.Run("Delete removes the key", func(t *testing.T) {
		commit(t, ctx, store, func(tx storage.Tx) {
			tx.Delete("greeting")
		})

		if _, err := store.Get(ctx, "greeting"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("MultiGet skips missing keys", func(t *testing.T) {
		commit(t, ctx, store, func(tx storage.Tx) {
			tx.Set("a", []byte("1"))
			tx.Set("b", []byte("2"))
		})

		values, err := store.MultiGet(ctx, "a", "b", "missing")
		if err != nil {
			t.Fatalf("MultiGet failed: %v", err)
		}
		if len(values) != 2 {
			t.Fatalf("MultiGet returned %d values, want 2", len(values))
		}
		if string(values["a"].Data) != "1" || string(values["b"].Data) != "2" {
			t.Errorf("MultiGet values = %v", values)
		}
	})
}

func TestStoreVersionedWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	commit(t, ctx, store, func(tx storage.Tx) {
		tx.Set("record", []byte("v1"))
	})

	t.Run("matching version succeeds", func(t *testing.T) {
		value, err := store.Get(ctx, "record")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		commit(t, ctx, store, func(tx storage.Tx) {
			tx.SetVersioned("record", []byte("v2"), value.Version)
		})

		updated, err := store.Get(ctx, "record")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(updated.Data) != "v2" || updated.Version != value.Version+1 {
			t.Errorf("after versioned write: %q version %d", updated.Data, updated.Version)
		}
	})

	t.Run("stale version fails with ErrVersionMismatch", func(t *testing.T) {
		tx, err := store.Begin(ctx)
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		tx.SetVersioned("record", []byte("stale"), 1)
		if err := tx.Commit(ctx); !errors.Is(err, storage.ErrVersionMismatch) {
			t.Fatalf("Commit error = %v, want ErrVersionMismatch", err)
		}

		value, err := store.Get(ctx, "record")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(value.Data) != "v2" {
			t.Errorf("stale write changed value to %q", value.Data)
		}
	})

	t.Run("version 0 creates missing key and loses to existing", func(t *testing.T) {
		commit(t, ctx, store, func(tx storage.Tx) {
			tx.SetVersioned("fresh", []byte("created"), 0)
		})
		value, err := store.Get(ctx, "fresh")
		if err != nil || string(value.Data) != "created" {
			t.Fatalf("Get(fresh) = %q, %v", value.Data, err)
		}

		tx, err := store.Begin(ctx)
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		tx.SetVersioned("fresh", []byte("again"), 0)
		if err := tx.Commit(ctx); !errors.Is(err, storage.ErrVersionMismatch) {
			t.Errorf("Commit error = %v, want ErrVersionMismatch", err)
		}
	})
}

func TestStoreLists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	commit(t, ctx, store, func(tx storage.Tx) {
		tx.ListPrepend("ids", "first")
		tx.ListPrepend("ids", "second")
		tx.ListPrepend("ids", "third")
	})

	t.Run("ListRange returns newest first", func(t *testing.T) {
		elements, err := store.ListRange(ctx, "ids", 0, -1)
		if err != nil {
			t.Fatalf("ListRange failed: %v", err)
		}
		want := []string{"third", "second", "first"}
		if !reflect.DeepEqual(elements, want) {
			t.Errorf("ListRange = %v, want %v", elements, want)
		}
	})

	t.Run("ListRange honors bounds", func(t *testing.T) {
		elements, err := store.ListRange(ctx, "ids", 1, 1)
		if err != nil {
			t.Fatalf("ListRange failed: %v", err)
		}
		if !reflect.DeepEqual(elements, []string{"second"}) {
			t.Errorf("ListRange(1,1) = %v, want [second]", elements)
		}

		elements, err = store.ListRange(ctx, "ids", -2, -1)
		if err != nil {
			t.Fatalf("ListRange failed: %v", err)
		}
		if !reflect.DeepEqual(elements, []string{"second", "first"}) {
			t.Errorf("ListRange(-2,-1) = %v, want [second first]", elements)
		}
	})

	t.Run("ListRange on missing list is empty", func(t *testing.T) {
		elements, err := store.ListRange(ctx, "nothing", 0, -1)
		if err != nil {
			t.Fatalf("ListRange failed: %v", err)
		}
		if len(elements) != 0 {
			t.Errorf("ListRange = %v, want empty", elements)
		}
	})

	t.Run("ListRemove drops all occurrences", func(t *testing.T) {
		commit(t, ctx, store, func(tx storage.Tx) {
			tx.ListPrepend("ids", "second")
		})
		commit(t, ctx, store, func(tx storage.Tx) {
			tx.ListRemove("ids", "second")
		})

		elements, err := store.ListRange(ctx, "ids", 0, -1)
		if err != nil {
			t.Fatalf("ListRange failed: %v", err)
		}
		if !reflect.DeepEqual(elements, []string{"third", "first"}) {
			t.Errorf("ListRange after remove = %v, want [third first]", elements)
		}
	})
}

func TestStoreTransactionAtomicity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	commit(t, ctx, store, func(tx storage.Tx) {
		tx.Set("guarded", []byte("original"))
	})

	// A transaction whose later operation fails must not apply its earlier
	// operations.
	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	tx.Set("other", []byte("should not appear"))
	tx.ListPrepend("list", "should not appear")
	tx.SetVersioned("guarded", []byte("changed"), 99)
	if err := tx.Commit(ctx); !errors.Is(err, storage.ErrVersionMismatch) {
		t.Fatalf("Commit error = %v, want ErrVersionMismatch", err)
	}

	if _, err := store.Get(ctx, "other"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("earlier Set leaked through failed transaction: %v", err)
	}
	elements, err := store.ListRange(ctx, "list", 0, -1)
	if err != nil {
		t.Fatalf("ListRange failed: %v", err)
	}
	if len(elements) != 0 {
		t.Errorf("earlier ListPrepend leaked through failed transaction: %v", elements)
	}
	value, err := store.Get(ctx, "guarded")
	if err != nil || string(value.Data) != "original" {
		t.Errorf("guarded value = %q, %v, want original", value.Data, err)
	}
}

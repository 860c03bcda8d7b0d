// Package docstoretest opens throwaway SQLite-backed collections for tests.
package docstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/learnhub/backend/internal/docstore"
)

// Backend opens a fresh SQLite backend under t.TempDir.
func Backend(t *testing.T) *docstore.Backend {
	t.Helper()
	backend, err := docstore.Open(context.Background(), docstore.Options{
		Driver:     docstore.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { backend.Close(context.Background()) })
	return backend
}

// Collection binds name on backend.
func Collection[T docstore.Document](t *testing.T, backend *docstore.Backend, name string) docstore.Collection[T] {
	t.Helper()
	coll, err := docstore.Bind[T](context.Background(), backend, name)
	if err != nil {
		t.Fatalf("bind %s: %v", name, err)
	}
	return coll
}

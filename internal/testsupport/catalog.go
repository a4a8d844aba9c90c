package testsupport

import (
	"path/filepath"
	"testing"

	"dropsync/internal/catalog"
)

// MustOpenCatalog opens a catalog in a temp directory and closes it on cleanup.
func MustOpenCatalog(t testing.TB) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog", "dropsync.db"))
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

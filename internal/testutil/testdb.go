// Package testutil provides utilities for testing
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/tmcnulty/quill/internal/database"
)

// NewTestDB opens a migrated sqlite store in a per-test temp directory and
// closes it when the test finishes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quill-test.db")
	db, err := database.New(database.DefaultConfig(path))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test store: %v", err)
		}
	})

	return db
}

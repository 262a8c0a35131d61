// Package testing provides test helpers shared across equitylab packages.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a temporary directory
// with the schema for name applied. The database is closed when the test ends.
//
// Supported schema names:
//   - "sessions" - applies sessions_schema.sql
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	return db
}

// NopLogger returns a logger that discards everything
func NopLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

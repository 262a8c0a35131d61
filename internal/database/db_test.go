package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InMemoryAppliesSessionsSchema(t *testing.T) {
	db, err := New(Config{Path: ":memory:", Name: "sessions", Profile: ProfileCache})
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='sessions'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "sessions", name)
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestNew_FileDatabaseCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")

	db, err := New(Config{Path: path, Name: "sessions"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.Equal(t, "sessions", db.Name())
	assert.FileExists(t, path)
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := New(Config{Path: ":memory:", Name: "sessions"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
}

func TestBuildConnectionString(t *testing.T) {
	assert.Equal(t,
		"a.db?_pragma=journal_mode(WAL)&_pragma=synchronous(OFF)&_pragma=temp_store(MEMORY)&_pragma=busy_timeout(5000)",
		buildConnectionString("a.db", ProfileCache))
	assert.Contains(t, buildConnectionString("file:x?mode=memory", ProfileStandard), "file:x?mode=memory&_pragma=")
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, err := New(Config{Path: ":memory:", Name: "sessions"})
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`INSERT INTO sessions (id, data, expires_at, updated_at) VALUES ('a', '{}', 1, 1)`)
		require.NoError(t, execErr)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count))
	assert.Equal(t, 0, count)
}

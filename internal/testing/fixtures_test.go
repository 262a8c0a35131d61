package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()

	path := WriteCSV(t, filepath.Join(dir, "nested"), "oi.csv", []string{"Ticker", "OI"}, []string{"AAPL", "10"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Ticker,OI\nAAPL,10\n", string(data))
}

func TestNewTestDB_AppliesSessionSchema(t *testing.T) {
	db := NewTestDB(t, "sessions")

	var name string
	err := db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'sessions'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "sessions", name)
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/Colin123/equitylab-ui/internal/testing"
)

func TestSnapshotsCmd_PrintsLatestFilesWithoutAuthSettings(t *testing.T) {
	dir := t.TempDir()
	for _, key := range []string{"AUTH0_CLIENT_ID", "AUTH0_CLIENT_SECRET", "AUTH0_DOMAIN", "AUTH0_CALLBACK_URL", "SECRET_KEY"} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("EQUITY_DATA_DIR", dir)

	testhelpers.SnapshotFiles(t, filepath.Join(dir, "oi"), "oi_20240101_120000.csv", "oi_20240315_090000.csv")
	testhelpers.SnapshotFiles(t, filepath.Join(dir, "kclass"), "ticker_classification_long_20240301_000000.csv")

	var out bytes.Buffer
	cmd := snapshotsCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "oi_20240315_090000.csv")
	assert.NotContains(t, text, "oi_20240101_120000.csv")
	assert.Contains(t, text, "ticker_classification_long_20240301_000000.csv")
	assert.Contains(t, text, "(none in "+filepath.Join(dir, "kclass")+")")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "snapshots"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

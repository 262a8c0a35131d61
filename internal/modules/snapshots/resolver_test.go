package snapshots

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("Ticker\n"), 0644))
	}
}

func newTestResolver() *Resolver {
	return NewResolver(zerolog.New(nil).Level(zerolog.Disabled))
}

func TestLatest_PicksGreatestTimestamp(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "oi_20240101_120000.csv", "oi_20240315_090000.csv", "oi_20231231_235959.csv")

	m, ok := newTestResolver().Latest(dir, OpenInterestPattern)

	require.True(t, ok)
	assert.Equal(t, "oi_20240315_090000.csv", m.Name)
	assert.Equal(t, filepath.Join(dir, "oi_20240315_090000.csv"), m.Path)
	assert.Equal(t, "20240315_090000", m.Timestamp)
	assert.Empty(t, m.Kind)
}

func TestLatest_SameDayComparesTime(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "oi_20240315_090000.csv", "oi_20240315_170500.csv")

	m, ok := newTestResolver().Latest(dir, OpenInterestPattern)

	require.True(t, ok)
	assert.Equal(t, "oi_20240315_170500.csv", m.Name)
}

func TestLatest_IgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "oi_20240101_120000.csv", "oi_20990101_000000.csv.bak", "notes.txt", "oi_latest.csv")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "oi_20991231_000000.csv"), 0755))

	m, ok := newTestResolver().Latest(dir, OpenInterestPattern)

	require.True(t, ok)
	assert.Equal(t, "oi_20240101_120000.csv", m.Name)
}

func TestLatest_NotFound(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{
			name: "empty directory",
			dir:  func(t *testing.T) string { return t.TempDir() },
		},
		{
			name: "missing directory",
			dir:  func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") },
		},
		{
			name: "only other files",
			dir: func(t *testing.T) string {
				dir := t.TempDir()
				touch(t, dir, "readme.md")
				return dir
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := newTestResolver().Latest(tt.dir(t), OpenInterestPattern)
			assert.False(t, ok)
			assert.Equal(t, Match{}, m)
		})
	}
}

func TestLatest_MaximalForAnyPermutation(t *testing.T) {
	names := []string{
		"oi_20230505_101010.csv",
		"oi_20241201_000001.csv",
		"oi_20241201_000000.csv",
		"oi_20190101_235959.csv",
	}

	for i := range names {
		dir := t.TempDir()
		// rotate creation order so directory order cannot decide the result
		touch(t, dir, append(names[i:], names[:i]...)...)

		m, ok := newTestResolver().Latest(dir, OpenInterestPattern)
		require.True(t, ok)
		assert.Equal(t, "oi_20241201_000001.csv", m.Name)
	}
}

func TestLatestByKind(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"ticker_classification_long_20240101_120000.csv",
		"ticker_classification_long_20240201_120000.csv",
		"ticker_classification_short_20240115_080000.csv",
		"ticker_classification_medium_20250101_000000.csv",
	)

	latest := newTestResolver().LatestByKind(dir, ClassificationPattern)

	require.Len(t, latest, 2)
	assert.Equal(t, "ticker_classification_long_20240201_120000.csv", latest["long"].Name)
	assert.Equal(t, "long", latest["long"].Kind)
	assert.Equal(t, "ticker_classification_short_20240115_080000.csv", latest["short"].Name)
	assert.Equal(t, "20240115_080000", latest["short"].Timestamp)
}

func TestLatestByKind_MissingKind(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ticker_classification_short_20240115_080000.csv")

	latest := newTestResolver().LatestByKind(dir, ClassificationPattern)

	_, hasLong := latest["long"]
	assert.False(t, hasLong)
	assert.Contains(t, latest, "short")
}

func TestLatest_CustomPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "rrg_run_20240101_000000.csv", "rrg_run_20240102_000000.csv")

	m, ok := newTestResolver().Latest(dir, regexp.MustCompile(`^rrg_run_(\d{8}_\d{6})\.csv$`))

	require.True(t, ok)
	assert.Equal(t, "20240102_000000", m.Timestamp)
}

func TestList_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "oi_20240101_120000.csv", "oi_20240315_090000.csv", "oi_20240201_000000.csv", "notes.txt")

	matches := newTestResolver().List(dir, OpenInterestPattern)

	require.Len(t, matches, 3)
	assert.Equal(t, "20240315_090000", matches[0].Timestamp)
	assert.Equal(t, "20240201_000000", matches[1].Timestamp)
	assert.Equal(t, "20240101_120000", matches[2].Timestamp)
}

func TestStatus(t *testing.T) {
	oi := t.TempDir()
	kclass := t.TempDir()
	touch(t, oi, "oi_20240101_120000.csv", "oi_20240315_090000.csv")
	touch(t, kclass, "ticker_classification_long_20240310_080000.csv")

	status := newTestResolver().Status(Dirs{OpenInterest: oi, Classification: kclass})

	require.Len(t, status, 3)
	assert.Equal(t, Status{File: "oi_20240315_090000.csv", Timestamp: "20240315_090000", Available: true}, status[SourceOpenInterest])
	assert.True(t, status[SourceLong].Available)
	assert.False(t, status[SourceShort].Available)
}

func TestSource(t *testing.T) {
	kclass := t.TempDir()
	touch(t, kclass,
		"ticker_classification_long_20240101_000000.csv",
		"ticker_classification_short_20240102_000000.csv",
		"ticker_classification_long_20240103_000000.csv",
	)
	dirs := Dirs{OpenInterest: filepath.Join(kclass, "missing"), Classification: kclass}
	r := newTestResolver()

	long, ok := r.Source(dirs, SourceLong)
	require.True(t, ok)
	require.Len(t, long, 2)
	assert.Equal(t, "ticker_classification_long_20240103_000000.csv", long[0].Name)

	oi, ok := r.Source(dirs, SourceOpenInterest)
	assert.True(t, ok)
	assert.Empty(t, oi)

	_, ok = r.Source(dirs, "dividends")
	assert.False(t, ok)
}

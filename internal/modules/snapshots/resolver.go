// Package snapshots locates the most recent timestamped CSV snapshot in a directory.
//
// Collectors write files such as oi_20240315_090000.csv. The timestamp format
// YYYYMMDD_HHMMSS sorts lexicographically in time order, so the latest file is
// the one with the greatest captured timestamp string.
package snapshots

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/rs/zerolog"
)

// Known snapshot filename patterns. The last capture group is always the timestamp.
var (
	OpenInterestPattern   = regexp.MustCompile(`oi_(\d{8}_\d{6})\.csv$`)
	ClassificationPattern = regexp.MustCompile(`ticker_classification_(long|short)_(\d{8}_\d{6})\.csv$`)
)

// Snapshot sources
const (
	SourceOpenInterest = "open_interest"
	SourceLong         = "classification_long"
	SourceShort        = "classification_short"
)

// Match is a resolved snapshot file
type Match struct {
	Name      string `json:"file"`
	Path      string `json:"-"`
	Kind      string `json:"kind,omitempty"` // first capture group when the pattern has two, e.g. "long"
	Timestamp string `json:"timestamp"`      // YYYYMMDD_HHMMSS
}

// Dirs locates the snapshot directories
type Dirs struct {
	OpenInterest   string
	Classification string
}

// Status describes the newest file of a source
type Status struct {
	File      string `json:"file,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Available bool   `json:"available"`
}

// Resolver finds the latest snapshot files
type Resolver struct {
	log zerolog.Logger
}

// NewResolver creates a new resolver
func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{
		log: log.With().Str("component", "snapshot_resolver").Logger(),
	}
}

// Latest returns the file in dir whose captured timestamp is lexicographically
// greatest. ok is false when nothing matches, including when dir is missing.
func (r *Resolver) Latest(dir string, pattern *regexp.Regexp) (Match, bool) {
	var best Match
	found := false

	for _, m := range r.scan(dir, pattern) {
		if !found || m.Timestamp > best.Timestamp {
			best = m
			found = true
		}
	}

	if found {
		r.log.Debug().Str("dir", dir).Str("file", best.Name).Msg("Resolved latest snapshot")
	} else {
		r.log.Warn().Str("dir", dir).Str("pattern", pattern.String()).Msg("No snapshot matched")
	}

	return best, found
}

// LatestByKind groups matches by their kind capture group and returns the
// latest file per kind. Kinds with no file are absent from the map.
func (r *Resolver) LatestByKind(dir string, pattern *regexp.Regexp) map[string]Match {
	latest := make(map[string]Match)

	for _, m := range r.scan(dir, pattern) {
		if cur, ok := latest[m.Kind]; !ok || m.Timestamp > cur.Timestamp {
			latest[m.Kind] = m
		}
	}

	for kind, m := range latest {
		r.log.Debug().Str("dir", dir).Str("kind", kind).Str("file", m.Name).Msg("Resolved latest snapshot")
	}

	return latest
}

// List returns every matching file in dir, newest first
func (r *Resolver) List(dir string, pattern *regexp.Regexp) []Match {
	matches := r.scan(dir, pattern)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp > matches[j].Timestamp
	})
	return matches
}

// Status reports the newest file of every known source
func (r *Resolver) Status(d Dirs) map[string]Status {
	status := map[string]Status{
		SourceOpenInterest: {},
		SourceLong:         {},
		SourceShort:        {},
	}

	if m, ok := r.Latest(d.OpenInterest, OpenInterestPattern); ok {
		status[SourceOpenInterest] = Status{File: m.Name, Timestamp: m.Timestamp, Available: true}
	}
	for kind, m := range r.LatestByKind(d.Classification, ClassificationPattern) {
		status["classification_"+kind] = Status{File: m.Name, Timestamp: m.Timestamp, Available: true}
	}

	return status
}

// Source lists the files of one source, newest first. ok is false for an
// unknown source name.
func (r *Resolver) Source(d Dirs, source string) ([]Match, bool) {
	switch source {
	case SourceOpenInterest:
		return r.List(d.OpenInterest, OpenInterestPattern), true
	case SourceLong, SourceShort:
		var out []Match
		for _, m := range r.List(d.Classification, ClassificationPattern) {
			if "classification_"+m.Kind == source {
				out = append(out, m)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func (r *Resolver) scan(dir string, pattern *regexp.Regexp) []Match {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.log.Warn().Err(err).Str("dir", dir).Msg("Snapshot directory unavailable")
		return nil
	}

	var matches []Match
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		groups := pattern.FindStringSubmatch(entry.Name())
		if len(groups) < 2 {
			continue
		}

		m := Match{
			Name:      entry.Name(),
			Path:      filepath.Join(dir, entry.Name()),
			Timestamp: groups[len(groups)-1],
		}
		if len(groups) > 2 {
			m.Kind = groups[1]
		}
		matches = append(matches, m)
	}

	return matches
}

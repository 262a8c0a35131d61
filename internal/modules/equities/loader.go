package equities

import (
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/modules/dataset"
	"github.com/Colin123/equitylab-ui/internal/modules/snapshots"
)

// Snapshot source names, used in logs and the missing-snapshot hook
const (
	SourceUniverse     = "universe"
	SourceLong         = snapshots.SourceLong
	SourceShort        = snapshots.SourceShort
	SourceOpenInterest = snapshots.SourceOpenInterest
)

// universeKey is the ticker column of the universe config before renaming
const universeKey = "Code"

var (
	universeDropColumns = []string{
		"Code with extension", "Type", "Subtype1", "SOIL", "S1", "CoT", "CoTCode", "Country", "Rank", "Remarks",
	}
	universeRenames = map[string]string{
		"Code":        ColTicker,
		"Subtype2":    ColSector,
		"Subtype3":    ColIndustry,
		"TickerComma": ColTickerComma,
	}
	classificationDropColumns = []string{"Name", "GicSector", "GicIndustry"}
	openInterestDropColumns   = []string{"Weekly", "Monthly", "Quarterly", "OI Threshold"}
)

// Sources locates the snapshots that feed the equity table
type Sources struct {
	ConfigFile string // ticker universe configuration CSV
	KClassDir  string // ticker_classification_{long,short}_<ts>.csv
	OIDir      string // oi_<ts>.csv
}

// Loader merges the equity snapshots into a single table
type Loader struct {
	sources   Sources
	resolver  *snapshots.Resolver
	onMissing func(source string)
	log       zerolog.Logger
}

// NewLoader creates a new equity loader
func NewLoader(sources Sources, resolver *snapshots.Resolver, log zerolog.Logger) *Loader {
	return &Loader{
		sources:  sources,
		resolver: resolver,
		log:      log.With().Str("component", "equity_loader").Logger(),
	}
}

// OnMissing registers a hook invoked whenever a snapshot cannot be read
func (l *Loader) OnMissing(fn func(source string)) {
	l.onMissing = fn
}

// Load rebuilds the equity records from disk. Missing snapshots produce a
// partial (possibly empty) result rather than an error.
func (l *Loader) Load() []Record {
	return Records(l.LoadTable())
}

// LoadTable rebuilds the merged equity table from disk
func (l *Loader) LoadTable() *dataset.Table {
	universe := l.loadUniverse()

	kclass := l.resolver.LatestByKind(l.sources.KClassDir, snapshots.ClassificationPattern)
	long := l.loadClassification(kclass, "long", SourceLong)
	short := l.loadClassification(kclass, "short", SourceShort)

	t := dataset.OuterJoin(universe, long, ColTicker, dataset.DefaultSuffixes)
	t = dataset.OuterJoin(t, short, ColTicker, dataset.DefaultSuffixes)

	t.Derive(ColClassification, func(row dataset.Row) string {
		return mergeClassification(row.Get("Classification_long"), row.Get("Classification_short"))
	})
	t.Drop("Classification_long", "Classification_short")

	t.Coalesce(ColForwardPE, "ForwardPE_long", "ForwardPE_short")
	t.Derive(ColForwardPE, func(row dataset.Row) string {
		v, ok := row.Float(ColForwardPE)
		if !ok {
			return ""
		}
		return formatPE(math.Round(v*100) / 100)
	})

	t.Coalesce(ColSubIndustry, "GicSubIndustry_long", "GicSubIndustry_short")

	t = dataset.OuterJoin(t, l.loadOpenInterest(), ColTicker, dataset.DefaultSuffixes)

	t.Filter(func(row dataset.Row) bool { return row.Get(ColTicker) != "" })
	t.Derive(ColFinviz, func(row dataset.Row) string { return FinvizURL(row.Get(ColTicker)) })
	t.SortBy(ColForwardPE, true, true)

	l.log.Debug().Int("rows", t.Len()).Msg("Equity table rebuilt")

	return t.Select(Columns...)
}

func (l *Loader) loadUniverse() *dataset.Table {
	t, ok := l.read(l.sources.ConfigFile, SourceUniverse, universeKey, dataset.ReadOptions{})
	if !ok {
		return dataset.New(ColTicker)
	}

	if t.HasColumn("Type") {
		t.Filter(func(row dataset.Row) bool { return row.Get("Type") == "Equity" })
	}
	return t.Drop(universeDropColumns...).Rename(universeRenames)
}

func (l *Loader) loadClassification(latest map[string]snapshots.Match, kind, source string) *dataset.Table {
	m, found := latest[kind]
	if !found {
		l.missing(source, l.sources.KClassDir)
		return dataset.New(ColTicker)
	}

	t, ok := l.read(m.Path, source, ColTicker, dataset.ReadOptions{})
	if !ok {
		return dataset.New(ColTicker)
	}

	t.Drop(classificationDropColumns...)
	return suffixColumns(t, "_"+kind)
}

func (l *Loader) loadOpenInterest() *dataset.Table {
	m, found := l.resolver.Latest(l.sources.OIDir, snapshots.OpenInterestPattern)
	if !found {
		l.missing(SourceOpenInterest, l.sources.OIDir)
		return dataset.New(ColTicker)
	}

	l.log.Info().Str("file", m.Name).Msg("Latest oi file")

	t, ok := l.read(m.Path, SourceOpenInterest, ColTicker, dataset.ReadOptions{IndexColumn: ColTicker})
	if !ok {
		return dataset.New(ColTicker)
	}
	return t.Drop(openInterestDropColumns...)
}

// read loads a snapshot that must carry the key column
func (l *Loader) read(path, source, key string, opts dataset.ReadOptions) (*dataset.Table, bool) {
	if path == "" {
		l.missing(source, path)
		return nil, false
	}

	t, err := dataset.ReadFile(path, opts)
	if err != nil {
		l.log.Warn().Err(err).Str("source", source).Msg("Snapshot unreadable, continuing without it")
		l.missing(source, path)
		return nil, false
	}

	if !t.HasColumn(key) {
		l.log.Warn().Str("source", source).Str("path", path).Str("key", key).Msg("Snapshot has no key column, skipping")
		l.missing(source, path)
		return nil, false
	}

	return t, true
}

func (l *Loader) missing(source, path string) {
	l.log.Warn().Str("source", source).Str("path", path).Msg("Snapshot missing")
	if l.onMissing != nil {
		l.onMissing(source)
	}
}

// suffixColumns renames every non-key column so that two classification
// snapshots can be joined without colliding. Columns that already carry the
// suffix, such as Classification_long in a long snapshot, keep their name.
func suffixColumns(t *dataset.Table, suffix string) *dataset.Table {
	mapping := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		if c != ColTicker && !strings.HasSuffix(c, suffix) {
			mapping[c] = c + suffix
		}
	}
	return t.Rename(mapping)
}

// mergeClassification combines the long and short labels. Equal labels
// collapse to one; "Unknown" labels are dropped.
func mergeClassification(long, short string) string {
	var parts []string
	for _, p := range []string{long, short} {
		p = strings.Trim(p, ", ")
		if p == "" || strings.EqualFold(p, "Unknown") {
			continue
		}
		if len(parts) == 1 && parts[0] == p {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}

func formatPE(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Records converts a merged equity table into records
func Records(t *dataset.Table) []Record {
	records := make([]Record, 0, t.Len())
	for _, row := range t.Rows {
		rec := Record{
			Ticker:         row.Get(ColTicker),
			Description:    row.Get(ColDescription),
			Sector:         row.Get(ColSector),
			Industry:       row.Get(ColIndustry),
			SubIndustry:    row.Get(ColSubIndustry),
			Classification: row.Get(ColClassification),
			OI:             row.Get(ColOI),
			Finviz:         row.Get(ColFinviz),
			TickerComma:    row.Get(ColTickerComma),
		}
		if v, ok := row.Float(ColForwardPE); ok {
			pe := v
			rec.ForwardPE = &pe
		}
		records = append(records, rec)
	}
	return records
}

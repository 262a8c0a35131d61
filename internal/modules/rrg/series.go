package rrg

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/modules/dataset"
)

// Series value columns
const (
	ColDate          = "Date"
	ColRRG           = "rrg"
	ColAdjustedClose = "Adjusted_close"
)

// DateLayout is the calendar-date format used for alignment and display
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

// Point is one dated observation
type Point struct {
	Date  time.Time
	Value float64
}

// Series is a date-ordered list of observations
type Series []Point

// LastDate returns the most recent date in the series
func (s Series) LastDate() (time.Time, bool) {
	if len(s) == 0 {
		return time.Time{}, false
	}
	last := s[0].Date
	for _, p := range s[1:] {
		if p.Date.After(last) {
			last = p.Date
		}
	}
	return last, true
}

// ParseDate parses a calendar date, dropping any time of day
func ParseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ReadSeries reads the Date column and valueColumn of a CSV file. Rows with an
// unparseable date or value are skipped. The result is sorted by date.
func ReadSeries(path, valueColumn string) (Series, error) {
	t, err := dataset.ReadFile(path, dataset.ReadOptions{})
	if err != nil {
		return nil, err
	}
	if !t.HasColumn(ColDate) || !t.HasColumn(valueColumn) {
		return nil, fmt.Errorf("%s: expected columns %q and %q", path, ColDate, valueColumn)
	}

	series := make(Series, 0, t.Len())
	for _, row := range t.Rows {
		date, ok := ParseDate(row.Get(ColDate))
		if !ok {
			continue
		}
		v, ok := row.Float(valueColumn)
		if !ok {
			continue
		}
		series = append(series, Point{Date: date, Value: v})
	}

	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

// SanitizeFilename maps a sector or industry name to its file name stem
func SanitizeFilename(name string) string {
	r := strings.NewReplacer(
		" ", "_",
		",", "_and",
		"&", "and",
		"(", "",
		")", "",
	)
	return r.Replace(name)
}

// Repository reads sector, industry and market series from disk
type Repository struct {
	rrgDir    string
	marketDir string
	log       zerolog.Logger
}

// NewRepository creates a new series repository
func NewRepository(rrgDir, marketDir string, log zerolog.Logger) *Repository {
	return &Repository{
		rrgDir:    rrgDir,
		marketDir: marketDir,
		log:       log.With().Str("component", "rrg_repository").Logger(),
	}
}

// SectorFile is the path of a sector's RRG series
func (r *Repository) SectorFile(sector string) string {
	return filepath.Join(r.rrgDir, "sector_"+SanitizeFilename(sector)+".csv")
}

// IndustryFile is the path of an industry's RRG series
func (r *Repository) IndustryFile(sector, industry string) string {
	return filepath.Join(r.rrgDir, SanitizeFilename(sector+"-"+industry+".csv"))
}

// MarketFile is the path of a ticker's price series
func (r *Repository) MarketFile(ticker string) string {
	return filepath.Join(r.marketDir, ticker+".US.csv")
}

// SectorSeries returns the sector RRG series, or false when unavailable
func (r *Repository) SectorSeries(sector string) (Series, bool) {
	return r.load(r.SectorFile(sector), ColRRG)
}

// IndustrySeries returns the industry RRG series, or false when unavailable
func (r *Repository) IndustrySeries(sector, industry string) (Series, bool) {
	return r.load(r.IndustryFile(sector, industry), ColRRG)
}

// MarketSeries returns the adjusted close series, or false when unavailable
func (r *Repository) MarketSeries(ticker string) (Series, bool) {
	return r.load(r.MarketFile(ticker), ColAdjustedClose)
}

func (r *Repository) load(path, column string) (Series, bool) {
	series, err := ReadSeries(path, column)
	if err != nil {
		r.log.Debug().Err(err).Str("path", path).Msg("Series unavailable")
		return nil, false
	}
	return series, true
}

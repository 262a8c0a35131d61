package charts

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/modules/rrg"
)

var (
	// ErrUnknownSector is returned for sectors absent from the mapping
	ErrUnknownSector = errors.New("unknown sector")
	// ErrUnknownIndustry is returned for industries absent from a sector
	ErrUnknownIndustry = errors.New("unknown industry")
)

// SeriesSource reads RRG and market series
type SeriesSource interface {
	SectorSeries(sector string) (rrg.Series, bool)
	IndustrySeries(sector, industry string) (rrg.Series, bool)
	MarketSeries(ticker string) (rrg.Series, bool)
}

// IndustryChart is one figure of a sector's industry list
type IndustryChart struct {
	ID       string `json:"id"`
	Industry string `json:"industry"`
	Figure   Figure `json:"figure"`
}

// SectorCharts is the sector figure with the figures of its industries
type SectorCharts struct {
	Sector     string          `json:"sector"`
	Ticker     string          `json:"ticker"`
	Figure     Figure          `json:"figure"`
	Industries []IndustryChart `json:"industries"`
}

// Service provides chart data operations
type Service struct {
	mapping *rrg.Mapping
	source  SeriesSource
	log     zerolog.Logger
}

// NewService creates a new charts service
func NewService(mapping *rrg.Mapping, source SeriesSource, log zerolog.Logger) *Service {
	return &Service{
		mapping: mapping,
		source:  source,
		log:     log.With().Str("service", "charts").Logger(),
	}
}

// SectorOptions returns the sector dropdown entries
func (s *Service) SectorOptions() []rrg.Option {
	return s.mapping.Options()
}

// DefaultSector is the first dropdown entry, or "" when none exist
func (s *Service) DefaultSector() string {
	options := s.mapping.Options()
	if len(options) == 0 {
		return ""
	}
	return options[0].Value
}

// Industries returns the industry names of a sector
func (s *Service) Industries(sector string) []string {
	return s.mapping.IndustriesFor(sector)
}

// SectorChart builds the sector figure plus one figure per industry.
// Missing files produce empty figures rather than errors.
func (s *Service) SectorChart(sector string) (*SectorCharts, error) {
	ticker, ok := s.mapping.TickerFor(sector)
	if !ok {
		return nil, ErrUnknownSector
	}

	result := &SectorCharts{
		Sector: sector,
		Ticker: ticker,
		Figure: EmptyFigure(),
	}

	sectorSeries, okSector := s.source.SectorSeries(sector)
	market, okMarket := s.source.MarketSeries(ticker)
	if okSector && okMarket {
		result.Figure = SectorFigure(sector, ticker, sectorSeries, market)
	} else {
		s.log.Debug().
			Str("sector", sector).
			Bool("sector_file", okSector).
			Bool("market_file", okMarket).
			Msg("Sector chart data unavailable")
	}

	result.Industries = s.industryCharts(sector)
	return result, nil
}

// IndustryCharts builds one figure per industry of a sector
func (s *Service) IndustryCharts(sector string) ([]IndustryChart, error) {
	if _, ok := s.mapping.TickerFor(sector); !ok && len(s.mapping.IndustriesFor(sector)) == 0 {
		return nil, ErrUnknownSector
	}
	return s.industryCharts(sector), nil
}

// IndustrySectors returns the sectors that have configured industries
func (s *Service) IndustrySectors() []string {
	return s.mapping.SectorNames()
}

// IndustryChart builds the figure of a single industry
func (s *Service) IndustryChart(sector, industry string) (Figure, error) {
	if _, ok := s.mapping.TickerFor(sector); !ok && len(s.mapping.IndustriesFor(sector)) == 0 {
		return Figure{}, ErrUnknownSector
	}
	if !s.mapping.HasIndustry(sector, industry) {
		return Figure{}, ErrUnknownIndustry
	}
	return s.industryFigure(sector, industry), nil
}

func (s *Service) industryCharts(sector string) []IndustryChart {
	out := []IndustryChart{}
	for _, industry := range s.mapping.IndustriesFor(sector) {
		out = append(out, IndustryChart{
			ID:       IndustryChartID(sector, industry),
			Industry: industry,
			Figure:   s.industryFigure(sector, industry),
		})
	}
	return out
}

// IndustryChartID is the element id of an industry chart
func IndustryChartID(sector, industry string) string {
	return rrg.SanitizeFilename(sector + "-" + industry + "-chart")
}

func (s *Service) industryFigure(sector, industry string) Figure {
	series, ok := s.source.IndustrySeries(sector, industry)
	if !ok {
		return EmptyFigure()
	}
	return IndustryFigure(industry, series)
}

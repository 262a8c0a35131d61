// Package rrg holds the sector mapping and reads Relative Rotation Graph series.
package rrg

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed sectors.yaml
var defaultSectorsYAML []byte

// SectorEntry pairs a sector with its category and representative ETF
type SectorEntry struct {
	Category string `yaml:"category" json:"category"`
	Sector   string `yaml:"sector" json:"sector"`
	Ticker   string `yaml:"ticker" json:"ticker"`
}

// Option is one entry of the sector dropdown
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Mapping is the static sector configuration
type Mapping struct {
	Sectors    []SectorEntry       `yaml:"sectors"`
	Industries map[string][]string `yaml:"industries"`
}

// DefaultMapping returns the built-in sector mapping
func DefaultMapping() (*Mapping, error) {
	return ParseMapping(defaultSectorsYAML)
}

// LoadMapping reads a mapping from a YAML file, or the built-in one when path is empty
func LoadMapping(path string) (*Mapping, error) {
	if path == "" {
		return DefaultMapping()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sector mapping: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes and validates a YAML sector mapping
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse sector mapping: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every entry is complete
func (m *Mapping) Validate() error {
	if len(m.Sectors) == 0 {
		return fmt.Errorf("sector mapping has no sectors")
	}
	for i, s := range m.Sectors {
		if s.Category == "" || s.Sector == "" || s.Ticker == "" {
			return fmt.Errorf("sector mapping entry %d is incomplete: %+v", i, s)
		}
	}
	return nil
}

// TickerFor returns the representative ticker of a sector. When a sector is
// listed more than once the first entry wins.
func (m *Mapping) TickerFor(sector string) (string, bool) {
	for _, s := range m.Sectors {
		if s.Sector == sector {
			return s.Ticker, true
		}
	}
	return "", false
}

// Options returns dropdown options sorted by category then sector
func (m *Mapping) Options() []Option {
	sorted := append([]SectorEntry(nil), m.Sectors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}
		return sorted[i].Sector < sorted[j].Sector
	})

	options := make([]Option, 0, len(sorted))
	for _, s := range sorted {
		options = append(options, Option{
			Label: s.Category + ": " + s.Sector,
			Value: s.Sector,
		})
	}
	return options
}

// IndustriesFor returns the industries of a sector in configured order
func (m *Mapping) IndustriesFor(sector string) []string {
	return m.Industries[sector]
}

// HasIndustry reports whether industry belongs to sector
func (m *Mapping) HasIndustry(sector, industry string) bool {
	for _, i := range m.Industries[sector] {
		if i == industry {
			return true
		}
	}
	return false
}

// SectorNames returns the distinct sectors that have industries, sorted
func (m *Mapping) SectorNames() []string {
	names := make([]string, 0, len(m.Industries))
	for name := range m.Industries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

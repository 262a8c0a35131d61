// Package charts builds RRG chart figures from sector, industry and market series.
package charts

import (
	"fmt"
	"sort"
	"time"

	"github.com/Colin123/equitylab-ui/internal/modules/rrg"
)

// AlignedRow holds the values of two series on one date
type AlignedRow struct {
	Date  time.Time
	Left  float64
	Right float64
}

// Align inner-joins two series on exact date and sorts the result ascending.
// Dates present in only one series are dropped; no gaps are filled.
func Align(left, right rrg.Series) []AlignedRow {
	byDate := make(map[time.Time][]float64, len(right))
	for _, p := range right {
		byDate[p.Date] = append(byDate[p.Date], p.Value)
	}

	rows := make([]AlignedRow, 0)
	for _, l := range left {
		for _, v := range byDate[l.Date] {
			rows = append(rows, AlignedRow{Date: l.Date, Left: l.Value, Right: v})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// SectorFigure plots the representative ticker's adjusted close on the left
// axis against the sector RRG on the right axis, over their common dates.
func SectorFigure(sector, ticker string, sectorSeries, market rrg.Series) Figure {
	rows := Align(market, sectorSeries)

	x := make([]string, len(rows))
	closes := make([]float64, len(rows))
	ratio := make([]float64, len(rows))
	for i, row := range rows {
		x[i] = row.Date.Format(rrg.DateLayout)
		closes[i] = row.Left
		ratio[i] = row.Right
	}

	marketTrace := lineTrace(
		fmt.Sprintf("%s Adjusted Close<br>%s", ticker, lastDate(market)),
		ColorMarket, x, closes,
	)
	sectorTrace := lineTrace(
		fmt.Sprintf("%s RRG<br>%s", sector, lastDate(sectorSeries)),
		ColorSector, x, ratio,
	)
	sectorTrace.YAxis = "y2"

	return Figure{
		Data: []Trace{marketTrace, sectorTrace},
		Layout: Layout{
			Title:    Text{Text: fmt.Sprintf("%s vs %s Adjusted Close", sector, ticker)},
			Template: template,
			XAxis:    Axis{Title: Text{Text: "Date"}},
			YAxis:    Axis{Title: Text{Text: "Adjusted Close"}},
			YAxis2: &Axis{
				Title:      Text{Text: "RRG"},
				Side:       "right",
				Overlaying: "y",
			},
		},
	}
}

// IndustryFigure plots a single industry RRG series
func IndustryFigure(industry string, series rrg.Series) Figure {
	x := make([]string, len(series))
	y := make([]float64, len(series))
	for i, p := range series {
		x[i] = p.Date.Format(rrg.DateLayout)
		y[i] = p.Value
	}

	return Figure{
		Data: []Trace{
			lineTrace(fmt.Sprintf("%s RRG<br>%s", industry, lastDate(series)), ColorIndustry, x, y),
		},
		Layout: Layout{
			Title:    Text{Text: fmt.Sprintf("%s RRG Chart", industry)},
			Template: template,
			XAxis:    Axis{Title: Text{Text: "Date"}},
			YAxis:    Axis{Title: Text{Text: "RRG Value"}},
		},
	}
}

// DemoFigure is the static example chart of the demo page
func DemoFigure() Figure {
	x := []string{"1", "2", "3"}
	return Figure{
		Data: []Trace{
			{X: x, Y: []float64{4, 1, 2}, Type: "bar", Name: "Example Bar Chart"},
			{X: x, Y: []float64{2, 4, 5}, Type: "scatter", Mode: "lines", Name: "Example Line Chart"},
		},
		Layout: Layout{Title: Text{Text: "Dash Plot Example"}},
	}
}

func lastDate(s rrg.Series) string {
	d, ok := s.LastDate()
	if !ok {
		return "n/a"
	}
	return d.Format(rrg.DateLayout)
}

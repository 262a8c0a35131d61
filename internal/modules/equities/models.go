// Package equities builds the equity opportunity set from CSV snapshots.
package equities

// Column names of the merged equity table, in presentation order
const (
	ColTicker         = "Ticker"
	ColDescription    = "Description"
	ColSector         = "Sector"
	ColIndustry       = "Industry"
	ColSubIndustry    = "Sub-Industry"
	ColClassification = "Classification"
	ColForwardPE      = "Forward P/E"
	ColOI             = "OI"
	ColFinviz         = "Finviz"
	ColTickerComma    = "Ticker Comma"
)

// Columns is the output column order
var Columns = []string{
	ColTicker,
	ColDescription,
	ColSector,
	ColIndustry,
	ColSubIndustry,
	ColClassification,
	ColForwardPE,
	ColOI,
	ColFinviz,
	ColTickerComma,
}

// Record is one equity in the opportunity set
type Record struct {
	Ticker         string   `json:"ticker"`
	Description    string   `json:"description"`
	Sector         string   `json:"sector"`
	Industry       string   `json:"industry"`
	SubIndustry    string   `json:"sub_industry"`
	Classification string   `json:"classification"`
	ForwardPE      *float64 `json:"forward_pe"`
	OI             string   `json:"oi"`
	Finviz         string   `json:"finviz"`
	TickerComma    string   `json:"ticker_comma"`
}

// Values returns the record cells in Columns order, formatted for display
func (r Record) Values() []string {
	pe := ""
	if r.ForwardPE != nil {
		pe = formatPE(*r.ForwardPE)
	}
	return []string{
		r.Ticker,
		r.Description,
		r.Sector,
		r.Industry,
		r.SubIndustry,
		r.Classification,
		pe,
		r.OI,
		r.Finviz,
		r.TickerComma,
	}
}

// FinvizURL is the external quote link for a ticker
func FinvizURL(ticker string) string {
	return "https://finviz.com/quote.ashx?t=" + ticker + "&p=d"
}

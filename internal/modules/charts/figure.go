package charts

// Figure is a Plotly-compatible chart description
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one plotted series
type Trace struct {
	X     []string  `json:"x"`
	Y     []float64 `json:"y"`
	Type  string    `json:"type"`
	Mode  string    `json:"mode,omitempty"`
	Name  string    `json:"name"`
	Line  *Line     `json:"line,omitempty"`
	YAxis string    `json:"yaxis,omitempty"`
}

// Line styles a trace
type Line struct {
	Color string `json:"color"`
}

// Layout describes titles and axes
type Layout struct {
	Title    Text   `json:"title"`
	Template string `json:"template,omitempty"`
	XAxis    Axis   `json:"xaxis"`
	YAxis    Axis   `json:"yaxis"`
	YAxis2   *Axis  `json:"yaxis2,omitempty"`
}

// Axis describes one axis
type Axis struct {
	Title      Text   `json:"title"`
	Side       string `json:"side,omitempty"`
	Overlaying string `json:"overlaying,omitempty"`
}

// Text is a Plotly title object
type Text struct {
	Text string `json:"text"`
}

const template = "plotly_dark"

// Trace colours
const (
	ColorMarket   = "blue"
	ColorSector   = "red"
	ColorIndustry = "green"
)

// EmptyFigure is rendered when data is unavailable
func EmptyFigure() Figure {
	return Figure{
		Data:   []Trace{},
		Layout: Layout{Template: template},
	}
}

// IsEmpty reports whether the figure has no traces
func (f Figure) IsEmpty() bool {
	return len(f.Data) == 0
}

func lineTrace(name, color string, x []string, y []float64) Trace {
	return Trace{
		X:    x,
		Y:    y,
		Type: "scatter",
		Mode: "lines",
		Name: name,
		Line: &Line{Color: color},
	}
}

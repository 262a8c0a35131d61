// Package pages maps navigation events to dashboard pages.
package pages

// State is a page of the dashboard
type State string

// Page states
const (
	SectorOverview     State = "sector-overview"
	IndustryOverview   State = "industry-overview"
	StockList          State = "stock-list"
	LoginRedirect      State = "login-redirect"
	CallbackProcessing State = "callback-processing"
)

// Initial is the state of a session that has not navigated yet
const Initial = SectorOverview

// Navigation button ids
const (
	ButtonSectorOverview   = "sector-overview-btn"
	ButtonIndustryOverview = "industry-overview-btn"
	ButtonStockList        = "stock-list-btn"
)

// Paths that change the page
const (
	PathLogin      = "/login"
	PathCallback   = "/callback"
	PathSectors    = "/app/sectors"
	PathIndustries = "/app/industries"
	PathStocks     = "/app/stocks"
)

// Event is a navigation event: ButtonClicked or PathChanged
type Event interface {
	event()
}

// ButtonClicked is a click on a navigation button
type ButtonClicked struct {
	ID string
}

// PathChanged is a change of the browser location
type PathChanged struct {
	Path string
}

func (ButtonClicked) event() {}
func (PathChanged) event()   {}

var buttonTargets = map[string]State{
	ButtonSectorOverview:   SectorOverview,
	ButtonIndustryOverview: IndustryOverview,
	ButtonStockList:        StockList,
}

var pathTargets = map[string]State{
	PathLogin:      LoginRedirect,
	PathCallback:   CallbackProcessing,
	PathSectors:    SectorOverview,
	PathIndustries: IndustryOverview,
	PathStocks:     StockList,
}

// Transition returns the state reached from current on ev. The session gate
// is checked first: without authentication every event leads to
// LoginRedirect, except navigation to the login and callback paths.
// A nil event keeps the current page.
func Transition(current State, ev Event, authenticated bool) State {
	if !authenticated && !isAuthPath(ev) {
		return LoginRedirect
	}

	switch e := ev.(type) {
	case ButtonClicked:
		if target, ok := buttonTargets[e.ID]; ok {
			return target
		}
		return SectorOverview
	case PathChanged:
		if target, ok := pathTargets[e.Path]; ok {
			return target
		}
		return SectorOverview
	default:
		if !current.Renderable() {
			return Initial
		}
		return current
	}
}

// Complete resolves transient states: the callback completes into the sector overview
func Complete(s State) State {
	if s == CallbackProcessing {
		return SectorOverview
	}
	return s
}

// Renderable reports whether the state is a page layout
func (s State) Renderable() bool {
	switch s {
	case SectorOverview, IndustryOverview, StockList:
		return true
	}
	return false
}

// ParseState parses a stored state, falling back to Initial
func ParseState(v string) State {
	s := State(v)
	if s.Renderable() {
		return s
	}
	return Initial
}

func isAuthPath(ev Event) bool {
	p, ok := ev.(PathChanged)
	return ok && (p.Path == PathLogin || p.Path == PathCallback)
}

// Package handlers serves the dashboard pages driven by the page router.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/modules/auth"
	"github.com/Colin123/equitylab-ui/internal/modules/charts"
	"github.com/Colin123/equitylab-ui/internal/modules/equities"
	"github.com/Colin123/equitylab-ui/internal/modules/pages"
	"github.com/Colin123/equitylab-ui/internal/modules/rrg"
	"github.com/Colin123/equitylab-ui/internal/session"
	"github.com/Colin123/equitylab-ui/pkg/embedded"
)

// Session keys
const (
	SessionKeyPage   = "page"
	SessionKeySector = "sector"
)

// RecordLoader rebuilds the equity records on every call
type RecordLoader interface {
	Load() []equities.Record
}

// Handler handles dashboard page requests
type Handler struct {
	charts   *charts.Service
	loader   RecordLoader
	sessions *session.Manager
	renderer *embedded.Renderer
	log      zerolog.Logger
}

// NewHandler creates a new pages handler
func NewHandler(
	chartService *charts.Service,
	loader RecordLoader,
	sessions *session.Manager,
	renderer *embedded.Renderer,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		charts:   chartService,
		loader:   loader,
		sessions: sessions,
		renderer: renderer,
		log:      log.With().Str("handler", "pages").Logger(),
	}
}

// HandleApp handles GET /app and /app/{page}. A ?btn= parameter is a button
// click; otherwise the path is the event. Plain /app reopens the last page.
func (h *Handler) HandleApp(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	profile := auth.FromContext(r.Context())

	current := pages.Initial
	if sess != nil {
		current = pages.ParseState(sess.Get(SessionKeyPage))
	}

	next := pages.Complete(pages.Transition(current, eventFor(r), profile != nil))
	if next == pages.LoginRedirect {
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}

	h.log.Debug().Str("from", string(current)).Str("to", string(next)).Msg("Page transition")

	var (
		name string
		data interface{}
	)
	switch next {
	case pages.IndustryOverview:
		name, data = "industries", h.industryOverview(r, profile)
	case pages.StockList:
		name, data = "stocks", h.stockList(r, profile)
	default:
		name, data = "sectors", h.sectorOverview(r, sess, profile)
	}

	if sess != nil {
		sess.Set(SessionKeyPage, string(next))
		if sess.Modified() {
			if err := h.sessions.Save(w, r, sess); err != nil {
				h.log.Error().Err(err).Msg("Failed to save session")
			}
		}
	}

	h.render(w, name, data)
}

// HandleHello handles GET /hello
func (h *Handler) HandleHello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello, World!"))
}

// HandleDemo handles GET /demo
func (h *Handler) HandleDemo(w http.ResponseWriter, r *http.Request) {
	data := demoPage{
		Page:       pageFor(profileOf(r), "Demo", ""),
		FigureJSON: h.figureJSON(charts.DemoFigure()),
	}
	h.render(w, "demo", data)
}

func eventFor(r *http.Request) pages.Event {
	if btn := r.URL.Query().Get("btn"); btn != "" {
		return pages.ButtonClicked{ID: btn}
	}
	if r.URL.Path == "/app" || r.URL.Path == "/app/" {
		return nil
	}
	return pages.PathChanged{Path: r.URL.Path}
}

type chartView struct {
	ID         string
	FigureJSON string
}

type sectorView struct {
	FigureJSON string
	Empty      bool
	Industries []chartView
}

type sectorsPage struct {
	embedded.Page
	Options  []rrg.Option
	Selected string
	Charts   *sectorView
}

func (h *Handler) sectorOverview(r *http.Request, sess *session.Session, profile *auth.Profile) sectorsPage {
	sector := r.URL.Query().Get("sector")
	if sector == "" && sess != nil {
		sector = sess.Get(SessionKeySector)
	}
	if sector == "" {
		sector = h.charts.DefaultSector()
	}

	result, err := h.charts.SectorChart(sector)
	if errors.Is(err, charts.ErrUnknownSector) && sector != h.charts.DefaultSector() {
		sector = h.charts.DefaultSector()
		result, err = h.charts.SectorChart(sector)
	}

	data := sectorsPage{
		Page:     pageFor(profile, "Sector Overview", pages.SectorOverview),
		Options:  h.charts.SectorOptions(),
		Selected: sector,
	}
	if err != nil {
		h.log.Warn().Err(err).Str("sector", sector).Msg("No sector chart")
		return data
	}

	if sess != nil {
		sess.Set(SessionKeySector, sector)
	}

	view := &sectorView{
		FigureJSON: h.figureJSON(result.Figure),
		Empty:      result.Figure.IsEmpty(),
	}
	for _, ic := range result.Industries {
		view.Industries = append(view.Industries, chartView{ID: ic.ID, FigureJSON: h.figureJSON(ic.Figure)})
	}
	data.Charts = view
	return data
}

type industriesPage struct {
	embedded.Page
	Sectors    []string
	Sector     string
	Industries []string
	Industry   string
	Charts     []chartView
}

func (h *Handler) industryOverview(r *http.Request, profile *auth.Profile) industriesPage {
	sectors := h.charts.IndustrySectors()
	data := industriesPage{
		Page:    pageFor(profile, "Industry Overview", pages.IndustryOverview),
		Sectors: sectors,
		Sector:  r.URL.Query().Get("sector"),
	}
	if data.Sector == "" && len(sectors) > 0 {
		data.Sector = sectors[0]
	}
	data.Industries = h.charts.Industries(data.Sector)

	if industry := r.URL.Query().Get("industry"); industry != "" {
		fig, err := h.charts.IndustryChart(data.Sector, industry)
		if err == nil {
			data.Industry = industry
			data.Charts = []chartView{{
				ID:         charts.IndustryChartID(data.Sector, industry),
				FigureJSON: h.figureJSON(fig),
			}}
			return data
		}
		h.log.Debug().Err(err).Str("industry", industry).Msg("Unknown industry requested")
	}

	list, err := h.charts.IndustryCharts(data.Sector)
	if err != nil {
		h.log.Debug().Err(err).Str("sector", data.Sector).Msg("No industry charts")
		return data
	}
	for _, ic := range list {
		data.Charts = append(data.Charts, chartView{ID: ic.ID, FigureJSON: h.figureJSON(ic.Figure)})
	}
	return data
}

type columnView struct {
	Name    string
	SortURL string
	Sorted  bool
	Desc    bool
}

type cellView struct {
	Text string
	Link string
}

type rowView struct {
	Cells []cellView
}

type stocksPage struct {
	embedded.Page
	Query   equities.Query
	Result  equities.Page
	Columns []columnView
	Rows    []rowView
	PrevURL string
	NextURL string
}

func (h *Handler) stockList(r *http.Request, profile *auth.Profile) stocksPage {
	query := parseStockQuery(r)
	result := query.Apply(h.loader.Load())

	data := stocksPage{
		Page:   pageFor(profile, "Opportunity Set", pages.StockList),
		Query:  query,
		Result: result,
	}

	for _, col := range equities.Columns {
		sorted := col == query.SortBy
		next := query
		next.SortBy = col
		next.Desc = sorted && !query.Desc
		next.Page = 1
		data.Columns = append(data.Columns, columnView{
			Name:    col,
			SortURL: stockURL(next),
			Sorted:  sorted,
			Desc:    sorted && query.Desc,
		})
	}

	for _, rec := range result.Records {
		var row rowView
		for i, v := range rec.Values() {
			cell := cellView{Text: v}
			if equities.Columns[i] == equities.ColFinviz && v != "" {
				cell = cellView{Link: v}
			}
			row.Cells = append(row.Cells, cell)
		}
		data.Rows = append(data.Rows, row)
	}

	if result.Page > 1 {
		prev := query
		prev.Page = result.Page - 1
		data.PrevURL = stockURL(prev)
	}
	if result.Page < result.Pages {
		next := query
		next.Page = result.Page + 1
		data.NextURL = stockURL(next)
	}
	return data
}

func parseStockQuery(r *http.Request) equities.Query {
	q := r.URL.Query()
	query := equities.Query{
		Filter:   q.Get("q"),
		SortBy:   q.Get("sort"),
		Page:     1,
		PageSize: equities.DefaultPageSize,
	}
	if desc, err := strconv.ParseBool(q.Get("desc")); err == nil {
		query.Desc = desc
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		query.Page = page
	}
	return query
}

func stockURL(q equities.Query) string {
	v := url.Values{}
	if q.Filter != "" {
		v.Set("q", q.Filter)
	}
	if q.SortBy != "" {
		v.Set("sort", q.SortBy)
		v.Set("desc", strconv.FormatBool(q.Desc))
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if len(v) == 0 {
		return pages.PathStocks
	}
	return pages.PathStocks + "?" + v.Encode()
}

type demoPage struct {
	embedded.Page
	FigureJSON string
}

func (h *Handler) figureJSON(fig charts.Figure) string {
	b, err := json.Marshal(fig)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode figure")
		return "{}"
	}
	return string(b)
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.renderer.HTML(w, http.StatusOK, name, data); err != nil {
		h.log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func profileOf(r *http.Request) *auth.Profile {
	return auth.FromContext(r.Context())
}

func pageFor(profile *auth.Profile, title string, active pages.State) embedded.Page {
	p := embedded.Page{Title: title, Active: string(active)}
	if profile != nil {
		p.LoggedIn = true
		p.UserName = profile.DisplayName()
	}
	return p
}

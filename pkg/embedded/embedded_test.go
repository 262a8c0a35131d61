package embedded

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Page
	Error string
}

func TestNewRenderer_ParsesAllPages(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, name := range []string{"index", "dashboard", "sectors", "industries", "stocks", "demo"} {
		assert.Contains(t, r.pages, name)
	}
}

func TestRender_IndexEscapesError(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "index", page{Page: Page{Title: "Home"}, Error: "<script>x</script>"}))

	out := buf.String()
	assert.Contains(t, out, "<title>Home - Recursa Regime Analysis</title>")
	assert.Contains(t, out, `href="/login"`)
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "sector-overview-btn")
}

func TestRender_NavigationWhenLoggedIn(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, r.HTML(w, http.StatusOK, "index", page{Page: Page{Title: "Home", LoggedIn: true, UserName: "Ada", Active: "stock-list"}}))

	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `id="sector-overview-btn"`)
	assert.Contains(t, w.Body.String(), `nav-btn active" id="stock-list-btn"`)
}

func TestRender_UnknownPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	assert.Error(t, r.Render(&bytes.Buffer{}, "missing", nil))
}

func TestStatic(t *testing.T) {
	w := httptest.NewRecorder()
	Static().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app.js", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Plotly.newPlot")
}

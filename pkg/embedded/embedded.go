// Package embedded provides the HTML templates and static assets compiled
// into the binary.
//
// Every page in templates/pages is parsed together with templates/layout.html
// and rendered through the "layout" template.
package embedded

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed templates static
var Files embed.FS

// Page holds the fields the layout reads. Page data structs embed it.
type Page struct {
	Title    string
	LoggedIn bool
	UserName string
	Active   string
}

// Renderer executes page templates
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// NewRenderer parses every page template
func NewRenderer() (*Renderer, error) {
	entries, err := fs.ReadDir(Files, "templates/pages")
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(entries))}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		tmpl, err := template.New(e.Name()).Funcs(funcs).ParseFS(Files,
			"templates/layout.html",
			path.Join("templates/pages", e.Name()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", e.Name(), err)
		}
		r.pages[strings.TrimSuffix(e.Name(), ".html")] = tmpl
	}
	return r, nil
}

// Render writes page name to w. Output is buffered so a template error never
// produces a partial page.
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	buf, err := r.execute(name, data)
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// HTML renders a page as an HTML response
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, data interface{}) error {
	buf, err := r.execute(name, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func (r *Renderer) execute(name string, data interface{}) (*bytes.Buffer, error) {
	tmpl, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return &buf, nil
}

// Static serves the embedded static directory
func Static() http.Handler {
	sub, err := fs.Sub(Files, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Package view renders HTML pages and carries one-shot flash notices
// between requests.
package view

import (
	"html/template"
	"net/http"
	"path/filepath"
)

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer(dir string) (*Renderer, error) {
	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
	tmpl, err := template.New("").Funcs(funcs).ParseGlob(filepath.Join(dir, "layout", "*.html"))
	if err != nil {
		return nil, err
	}
	tmpl, err = tmpl.ParseGlob(filepath.Join(dir, "pages", "*.html"))
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// CSRFCookieName is shared with the middleware that issues and checks the
// token; the renderer only copies it into forms.
const CSRFCookieName = "quizhub_csrf"

// Render executes the named page template. Queued flash notices are drained
// into the data context under "Flashes" so they display exactly once.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Flashes"] = PopFlashes(w, r)
	if c, err := r.Cookie(CSRFCookieName); err == nil {
		data["CSRFToken"] = c.Value
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rd.tmpl.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

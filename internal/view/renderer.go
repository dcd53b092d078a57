package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/vbhan/go-shop/internal/logging"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page is the envelope handed to every template. Data carries the
// page-specific payload.
type Page struct {
	Title       string
	Path        string
	IsLoggedIn  bool
	Flashes     []string
	FieldErrors []string
	Form        map[string]string
	Data        any
}

// Renderer executes embedded HTML templates. Pages are rendered into a
// buffer first so a template failure can still produce a clean 500.
type Renderer struct {
	templates *template.Template
	logger    *logging.Logger
}

func NewRenderer(logger *logging.Logger) (*Renderer, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{templates: templates, logger: logger}, nil
}

// Render writes the named template with the given status code.
func (r *Renderer) Render(w http.ResponseWriter, statusCode int, name string, page Page) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, page); err != nil {
		r.logger.Error("failed to render template", "template", name, "error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write response", "template", name, "error", err.Error())
	}
}

// ServerError is the centralized responder for infrastructure failures.
// The cause is logged; the page stays generic.
func (r *Renderer) ServerError(w http.ResponseWriter, err error) {
	r.logger.Error("internal server error", "error", err.Error())
	r.Render(w, http.StatusInternalServerError, "error.html", Page{Title: "Error"})
}

// NotFound renders the 404 page.
func (r *Renderer) NotFound(w http.ResponseWriter) {
	r.Render(w, http.StatusNotFound, "notfound.html", Page{Title: "Page Not Found"})
}

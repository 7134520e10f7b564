package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticDir embed.FS

// staticFS serves /static/* without the directory prefix.
var staticFS, _ = fs.Sub(staticDir, "static")

// renderer executes the storefront page templates.
type renderer struct {
	templates *template.Template
}

func newRenderer() (*renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse storefront templates: %w", err)
	}
	return &renderer{templates: tmpl}, nil
}

func (r *renderer) render(w io.Writer, name string, data any) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

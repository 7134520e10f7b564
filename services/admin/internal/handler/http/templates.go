package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/piyush182004/Fynd/pkg/dashboard"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticDir embed.FS

var staticFS, _ = fs.Sub(staticDir, "static")

var funcs = template.FuncMap{
	"stars": func(rating int) string {
		if rating < 0 {
			rating = 0
		}
		if rating > 5 {
			rating = 5
		}
		return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
	},
	"tone": func(rating int) string { return string(dashboard.ToneFor(rating)) },
	"barHeight": func(count int, points []dashboard.ChartPoint) int {
		peak := 0
		for _, p := range points {
			peak = max(peak, p.Count)
		}
		if peak == 0 {
			return 0
		}
		return count * 100 / peak
	},
	"timestamp": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2 Jan 2006, 15:04 UTC")
	},
}

type renderer struct {
	templates *template.Template
}

func newRenderer() (*renderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse admin templates: %w", err)
	}
	return &renderer{templates: tmpl}, nil
}

func (r *renderer) render(w io.Writer, name string, data any) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

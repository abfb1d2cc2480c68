package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer executes the embedded view templates. Safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"pct":       func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
		"num":       func(v float64) string { return fmt.Sprintf("%g", v) },
		"severity":  func(s assurance.Severity) string { return strings.ToLower(string(s)) },
		"inc":       func(i int) int { return i + 1 },
		"riskOutOf": func(v float64) string { return fmt.Sprintf("%g/100", v) },
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the full HTML page for mode.
func (r *Renderer) Render(w io.Writer, mode reports.ViewMode, report *assurance.AssuranceReport, m Meta) error {
	var (
		name string
		data any
	)
	switch mode {
	case reports.ViewProfessional:
		name, data = "professional.html", Professional(report, m)
	default:
		name, data = "dashboard.html", Dashboard(report, m)
	}
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", mode, err)
	}
	return nil
}

// HTML renders into memory. The pdf exporter consumes this.
func (r *Renderer) HTML(mode reports.ViewMode, report *assurance.AssuranceReport, m Meta) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, mode, report, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

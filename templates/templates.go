package templates

import (
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed html/*.html
var htmlFS embed.FS

// Funcs are available to every page
var Funcs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 3:04 PM")
	},
}

// Load parses the embedded dashboard pages. Pages share the "header" and
// "footer" blocks from layout.html and are addressed by file name.
func Load() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(Funcs).ParseFS(htmlFS, "html/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// MustLoad is Load for program start-up and tests
func MustLoad() *template.Template {
	tmpl, err := Load()
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Package web holds the upload page template.
package web

import (
	"embed"
	"html/template"
	"strconv"
	"strings"
)

// IndexTemplate is the name the upload page is registered under.
const IndexTemplate = "index.html"

//go:embed templates/*.html
var templates embed.FS

var funcs = template.FuncMap{
	"humanSize": humanSize,
	"lines":     lines,
}

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templates, "templates/*.html")
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	suffixes := []string{"KB", "MB", "GB"}
	value := float64(n) / unit
	i := 0
	for value >= unit && i < len(suffixes)-1 {
		value /= unit
		i++
	}
	return strconv.FormatFloat(value, 'f', 1, 64) + " " + suffixes[i]
}

// lines splits text on line breaks so the template can keep them.
func lines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

package report

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"inspector/internal/extractor"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// HTMLOptions controls the HTML report header and file labels.
type HTMLOptions struct {
	Title     string
	Framework string
	// Root makes file headings relative when set.
	Root string
}

type htmlRoute struct {
	Method   string
	Path     string
	Handlers []string
	Line     int
}

type htmlGroup struct {
	File   string
	Routes []htmlRoute
}

type htmlPage struct {
	Title     string
	Framework string
	Total     int
	Groups    []htmlGroup
}

// WriteHTML renders routes as a standalone HTML page, one table per file in
// the order files first appear.
func WriteHTML(w io.Writer, routes []extractor.Route, opts HTMLOptions) error {
	page := htmlPage{
		Title:     opts.Title,
		Framework: opts.Framework,
		Total:     len(routes),
	}
	if page.Title == "" {
		page.Title = "Route Inspector Report"
	}

	index := make(map[string]int)
	for _, r := range routes {
		file := relPath(opts.Root, r.File)
		i, ok := index[file]
		if !ok {
			i = len(page.Groups)
			index[file] = i
			page.Groups = append(page.Groups, htmlGroup{File: file})
		}
		page.Groups[i].Routes = append(page.Groups[i].Routes, htmlRoute{
			Method:   r.Method,
			Path:     r.Path,
			Handlers: handlerStrings(r.Middleware),
			Line:     r.Line,
		})
	}
	return htmlTemplate.Execute(w, page)
}

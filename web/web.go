// Package web holds the server-rendered vehicle pages.
package web

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"text":  text,
		"year":  year,
		"query": query,
		"add1":  func(n int) int { return n + 1 },
		"sub1":  func(n int) int { return n - 1 },
	}).ParseFS(templateFS, "templates/*.html")
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func year(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}

// query rebuilds a page link, keeping the filters and replacing the page number.
func query(filters url.Values, page int) string {
	values := url.Values{}
	for key, v := range filters {
		values[key] = v
	}
	values.Set("pageNumber", strconv.Itoa(page))
	return "?" + values.Encode()
}

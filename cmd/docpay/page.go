package main

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"doc-analyzer/internal/prefs"
)

type pageData struct {
	Title    string
	Theme    prefs.Theme
	Body     string
	Metadata map[string]any
}

type metaRow struct {
	Key   string
	Value string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="zh-CN" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
:root { --bg: #ffffff; --fg: #1f2933; --muted: #616e7c; --border: #e4e7eb; }
[data-theme="dark"] { --bg: #1a1d21; --fg: #e4e7eb; --muted: #9aa5b1; --border: #323f4b; }
body { background: var(--bg); color: var(--fg); font-family: system-ui, sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
td { border-bottom: 1px solid var(--border); padding: .25rem .75rem; }
td:first-child { color: var(--muted); }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- if .Rows}}
<table>
{{- range .Rows}}
<tr><td>{{.Key}}</td><td>{{.Value}}</td></tr>
{{- end}}
</table>
{{- end}}
<main>{{.Body}}</main>
</body>
</html>
`))

// renderPage wraps the analysis markup, which the sections package has already escaped.
func renderPage(d pageData) ([]byte, error) {
	theme := d.Theme
	if theme == "" {
		theme = prefs.ThemeLight
	}
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Theme prefs.Theme
		Rows  []metaRow
		Body  template.HTML
	}{
		Title: d.Title,
		Theme: theme,
		Rows:  metaRows(d.Metadata),
		Body:  template.HTML(d.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

func metaRows(meta map[string]any) []metaRow {
	rows := make([]metaRow, 0, len(meta))
	for k, v := range meta {
		rows = append(rows, metaRow{Key: k, Value: fmt.Sprint(v)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

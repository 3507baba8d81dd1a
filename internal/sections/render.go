package sections

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var flatMarkdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))

// RenderAccordion renders fragments as collapsible sections. Only the first section
// starts expanded.
func RenderAccordion(fragments []Fragment) string {
	var b strings.Builder
	b.WriteString(`<div id="analysisAccordion">`)
	for i, f := range fragments {
		id := html.EscapeString(f.Spec.ID)
		expanded := i == 0
		active := ""
		if expanded {
			active = " active"
		}
		fmt.Fprintf(&b, `<div class="analysis-section-wrapper">`+
			`<div class="analysis-section-header" id="header-%s" role="button" tabindex="0" aria-expanded="%t" aria-controls="section-%s">`+
			`<h6><i data-feather="%s" aria-hidden="true"></i>%s</h6>`+
			`<i data-feather="chevron-down" class="chevron-icon" aria-hidden="true"></i></div>`+
			`<div id="section-%s" class="analysis-section-content%s" role="region" aria-labelledby="header-%s">`+
			`<div class="analysis-content">%s</div></div></div>`,
			id, expanded, id,
			html.EscapeString(f.Spec.Icon), html.EscapeString(f.Spec.Title),
			id, active, id,
			f.HTML,
		)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// RenderFlat renders a whole summary as one markdown block. Raw HTML in the summary is
// dropped by the renderer.
func RenderFlat(summary string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "<p>" + Placeholder + "</p>", nil
	}
	var buf bytes.Buffer
	if err := flatMarkdown.Convert([]byte(summary), &buf); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return buf.String(), nil
}

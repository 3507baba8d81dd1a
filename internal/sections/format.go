package sections

import (
	"html"
	"regexp"
	"strings"
)

var (
	ordinalPrefix = regexp.MustCompile(`(?m)^[ \t]*\d+[.、)][ \t]*`)
	headingPrefix = regexp.MustCompile(`(?m)^[ \t]*#+[ \t]*`)
	leadingSpace  = regexp.MustCompile(`(?m)^[ \t]+`)
	boldRun       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	blankLines    = regexp.MustCompile(`\n[ \t]*\n\s*`)
)

// Clean removes list ordinals, heading hashes and indentation line by line and trims
// the result. It leaves bullets and bold markers in place.
func Clean(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = ordinalPrefix.ReplaceAllString(s, "")
	s = headingPrefix.ReplaceAllString(s, "")
	s = leadingSpace.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Format renders one captured section body as HTML. Text is escaped first, then
// bullets become list items, **bold** becomes <strong>, and blank-line separated runs
// become paragraphs. It returns Placeholder when nothing is left.
func Format(raw string) string {
	content := Clean(raw)
	if content == "" || content == Placeholder {
		return Placeholder
	}

	var b strings.Builder
	for _, block := range blankLines.Split(content, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		writeBlock(&b, block)
	}
	if b.Len() == 0 {
		return Placeholder
	}
	return b.String()
}

// writeBlock groups the lines of one block into paragraph runs and bullet runs.
func writeBlock(b *strings.Builder, block string) {
	var text []string
	var items []string

	flushText := func() {
		if len(text) == 0 {
			return
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(text, "\n"))
		b.WriteString("</p>")
		text = text[:0]
	}
	flushItems := func() {
		if len(items) == 0 {
			return
		}
		b.WriteString("<ul>")
		for _, it := range items {
			b.WriteString("<li>")
			b.WriteString(it)
			b.WriteString("</li>")
		}
		b.WriteString("</ul>")
		items = items[:0]
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if item, ok := strings.CutPrefix(line, "- "); ok {
			flushText()
			items = append(items, inline(item))
			continue
		}
		flushItems()
		text = append(text, inline(line))
	}
	flushText()
	flushItems()
}

func inline(s string) string {
	return boldRun.ReplaceAllString(html.EscapeString(s), "<strong>$1</strong>")
}

// Package report renders a paid analysis as a downloadable PDF.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"doc-analyzer/internal/sections"
)

const (
	fontFamily   = "body"
	bodySize     = 11.0
	lineHeight   = 6.0
	headingSize  = 14.0
	titleSize    = 18.0
	pageMarginMM = 15.0
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// Renderer builds analysis PDFs. FontPath points at a UTF-8 TrueType font; without one
// the core Helvetica font is used, which cannot show CJK glyphs.
type Renderer struct {
	FontPath string
}

// Render lays out title followed by one block per section of summary, in specs order.
// Sections missing from summary show the placeholder text.
func (r Renderer) Render(title, summary string, specs []sections.SectionSpec) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMarginMM, pageMarginMM, pageMarginMM)
	pdf.SetAutoPageBreak(true, pageMarginMM)
	pdf.SetTitle(title, true)
	pdf.SetCreator("doc-analyzer", true)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.FontPath != "" {
		pdf.AddUTF8Font(fontFamily, "", r.FontPath)
		pdf.AddUTF8Font(fontFamily, "B", r.FontPath)
		pdf.AddUTF8Font(fontFamily, "I", r.FontPath)
		family = fontFamily
		tr = func(s string) string { return s }
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load font %s: %w", r.FontPath, err)
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", titleSize)
	pdf.MultiCell(0, 9, tr(title), "", "L", false)
	pdf.Ln(4)

	w := &writer{pdf: pdf, family: family, tr: tr}
	for _, raw := range sections.Slice(summary, specs) {
		pdf.SetFont(family, "B", headingSize)
		pdf.MultiCell(0, 8, tr(raw.Spec.Title), "", "L", false)
		pdf.Ln(1)
		pdf.SetFont(family, "", bodySize)

		body := sections.Clean(raw.Raw)
		if !raw.Found || strings.TrimSpace(body) == "" {
			body = sections.Placeholder
		}
		if err := w.markdown(body); err != nil {
			return nil, err
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
	source []byte
	bold   bool
	italic bool
	lists  int
}

func (w *writer) markdown(body string) error {
	w.source = []byte(body)
	doc := markdown.Parser().Parse(text.NewReader(w.source))
	return ast.Walk(doc, w.walk)
}

func (w *writer) font() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont(w.family, style, bodySize)
}

func (w *writer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if !entering {
			w.pdf.Ln(lineHeight)
		}
	case *ast.Heading:
		w.bold = entering
		w.font()
		if !entering {
			w.pdf.Ln(lineHeight)
		}
	case *ast.List:
		if entering {
			w.lists++
		} else {
			w.lists--
			w.pdf.Ln(1)
		}
	case *ast.ListItem:
		if entering {
			w.pdf.SetX(pageMarginMM + float64(w.lists)*4)
			w.pdf.Write(lineHeight, "- ")
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.font()
	case *ast.Text:
		if entering {
			w.pdf.Write(lineHeight, w.tr(string(node.Segment.Value(w.source))))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.pdf.Write(lineHeight, " ")
			}
		}
	case *ast.String:
		if entering {
			w.pdf.Write(lineHeight, w.tr(string(node.Value)))
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				w.pdf.MultiCell(0, lineHeight, w.tr(strings.TrimRight(string(seg.Value(w.source)), "\n")), "", "L", false)
			}
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, w.pdf.Error()
}

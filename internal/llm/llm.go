package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"doc-analyzer/internal/sections"
)

// Client abstracts LLM providers for document analysis.
type Client interface {
	// Analyze returns analysis text in which every requested section starts with its
	// marker, so the result can be sliced by the sections package.
	Analyze(ctx context.Context, input AnalyzeInput) (string, error)
}

// AnalyzeInput captures the inputs needed for document analysis.
type AnalyzeInput struct {
	Text     string
	Sections []sections.SectionSpec
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// ErrEmptyDocument is returned when there is no text to analyze.
var ErrEmptyDocument = errors.New("document has no extractable text")

// PlaceholderClient is a stub implementation for deployments without a provider.
type PlaceholderClient struct{}

// Analyze returns ErrNotImplemented.
func (PlaceholderClient) Analyze(ctx context.Context, input AnalyzeInput) (string, error) {
	return "", ErrNotImplemented
}

// SystemPrompt is the instruction shared by all providers.
const SystemPrompt = "You are a document analysis expert. Analyze the document the user provides and answer in Chinese."

// BuildUserPrompt lists the requested sections in order, followed by the document text.
func BuildUserPrompt(text string, specs []sections.SectionSpec) string {
	var b strings.Builder
	b.WriteString("请按以下顺序输出分析结果，每一部分单独成段，并以对应标题加冒号开头：\n")
	for i, spec := range specs {
		fmt.Fprintf(&b, "%d. %s：", i+1, spec.Marker)
		if spec.ID == "summary" {
			b.WriteString("用3-5句话概括文档内容")
		}
		b.WriteString("\n")
	}
	b.WriteString("可以使用 **粗体** 和以 \"- \" 开头的列表。\n\n文档内容：\n")
	b.WriteString(text)
	return b.String()
}

// TruncateRunes cuts s to at most max runes. A non-positive max leaves s unchanged.
func TruncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

package llm

import (
	"context"
	"strings"

	"doc-analyzer/internal/sections"
)

const staticExcerptRunes = 200

// StaticClient produces a fixed analysis without calling a provider. It lets the whole
// upload and payment flow run locally.
type StaticClient struct{}

// Analyze quotes the opening of the document as the summary and fills every other
// requested section with a fixed note.
func (StaticClient) Analyze(ctx context.Context, input AnalyzeInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := strings.Join(strings.Fields(input.Text), " ")
	if text == "" {
		return "", ErrEmptyDocument
	}
	specs := input.Sections
	if len(specs) == 0 {
		specs = sections.ByID(sections.DefaultSpecs(), "summary")
	}

	var b strings.Builder
	for i, spec := range specs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(spec.Marker)
		b.WriteString("：\n")
		if spec.ID == "summary" {
			b.WriteString(TruncateRunes(text, staticExcerptRunes))
			continue
		}
		b.WriteString("- 本地模式未调用模型，此部分为示例内容。")
	}
	return b.String(), nil
}

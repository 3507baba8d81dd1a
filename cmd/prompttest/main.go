package main

// Run the analysis prompt against a local file:
//   go run ./cmd/prompttest -file novel.pdf -sections summary,plot -pdf out.pdf

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doc-analyzer/internal/extract"
	"doc-analyzer/internal/llm"
	openai "doc-analyzer/internal/llm/openai"
	"doc-analyzer/internal/report"
	"doc-analyzer/internal/sections"
	"doc-analyzer/internal/shared/config"
	"doc-analyzer/internal/shared/telemetry"
)

type sectionOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Found bool   `json:"found"`
}

type output struct {
	File     string           `json:"file"`
	Metadata extract.Metadata `json:"metadata"`
	Chars    int              `json:"chars"`
	Elapsed  string           `json:"elapsed"`
	Sections []sectionOutput  `json:"sections"`
}

func main() {
	cfg := config.Load()
	telemetry.SetOutput(os.Stderr)

	filePath := flag.String("file", "", "Path to document (pdf or docx)")
	sectionIDs := flag.String("sections", "", "Comma separated section ids (default all)")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	pdfPath := flag.String("pdf", "", "Path to write the rendered PDF report (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (openai|static)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*filePath) == "" {
		exitErr("file path is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		exitErr(fmt.Sprintf("read file: %v", err))
	}
	fileName := filepath.Base(*filePath)

	res, err := extract.ExtractFromBytes(context.Background(), data, "", fileName)
	if err != nil {
		exitErr(fmt.Sprintf("extract text: %v", err))
	}

	specs := sections.DefaultSpecs()
	if ids := splitIDs(*sectionIDs); len(ids) > 0 {
		specs = sections.ByID(specs, ids...)
		if len(specs) == 0 {
			exitErr(fmt.Sprintf("no known sections in %q", *sectionIDs))
		}
	}

	client, err := buildClient(*provider, *model, cfg)
	if err != nil {
		exitErr(err.Error())
	}

	start := time.Now()
	summary, err := client.Analyze(context.Background(), llm.AnalyzeInput{Text: res.Text, Sections: specs})
	if err != nil {
		exitErr(fmt.Sprintf("llm analyze: %v", err))
	}

	out := output{
		File:     fileName,
		Metadata: res.Metadata,
		Chars:    len([]rune(res.Text)),
		Elapsed:  time.Since(start).Round(time.Millisecond).String(),
	}
	for _, s := range sections.Slice(summary, specs) {
		out.Sections = append(out.Sections, sectionOutput{
			ID:    s.Spec.ID,
			Title: s.Spec.Title,
			Body:  sections.Clean(s.Raw),
			Found: s.Found,
		})
	}

	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if *pdfPath != "" {
		title := res.Metadata.Title
		if title == "" || title == extract.Unknown {
			title = fileName
		}
		pdfBytes, err := report.Renderer{FontPath: cfg.PDFFontPath}.Render(title, summary, specs)
		if err != nil {
			exitErr(fmt.Sprintf("render pdf: %v", err))
		}
		if err := os.WriteFile(*pdfPath, pdfBytes, 0o644); err != nil {
			exitErr(fmt.Sprintf("write pdf: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
}

func buildClient(provider, model string, cfg config.Config) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "static":
		return llm.StaticClient{}, nil
	case "openai":
		client, err := openai.NewClient(openai.Options{
			APIKey:        cfg.OpenAIAPIKey,
			Model:         model,
			MaxInputRunes: cfg.LLMMaxInputRunes,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

package main

// Render a sample analysis PDF, useful for checking PDF_FONT_PATH:
//   go run ./cmd/renderdemo -out ./out/sample_report.pdf

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"doc-analyzer/internal/llm"
	"doc-analyzer/internal/report"
	"doc-analyzer/internal/sections"
	"doc-analyzer/internal/shared/config"
)

const sampleText = "小镇的面包师每天清晨开门。雨下了整个下午，街上的人都很安静。"

func main() {
	cfg := config.Load()
	outPath := flag.String("out", "./out/sample_report.pdf", "output path for the generated PDF")
	fontPath := flag.String("font", cfg.PDFFontPath, "UTF-8 TrueType font (required for CJK text)")
	flag.Parse()

	specs := sections.DefaultSpecs()
	summary, err := llm.StaticClient{}.Analyze(context.Background(), llm.AnalyzeInput{Text: sampleText, Sections: specs})
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze failed: %v\n", err)
		os.Exit(1)
	}

	data, err := report.Renderer{FontPath: *fontPath}.Render("示例报告", summary, specs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	pages, err := validateRenderedPDF(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: wrote %s (%d pages)\n", *outPath, pages)
}

func validateRenderedPDF(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if r.NumPage() == 0 {
		return 0, fmt.Errorf("no pages in %s", path)
	}
	return r.NumPage(), nil
}

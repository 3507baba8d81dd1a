package main

// Upload a document, pay for it and save the analysis:
//   go run ./cmd/docpay -file novel.pdf -options plot,themes -export json,pdf -html out/result.html

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"

	"doc-analyzer/internal/apiclient"
	"doc-analyzer/internal/export"
	"doc-analyzer/internal/extract"
	"doc-analyzer/internal/prefs"
	"doc-analyzer/internal/shared/telemetry"
	"doc-analyzer/internal/workflow"
)

type cliConfig struct {
	Server        string
	File          string
	Options       string
	Layout        string
	Exports       string
	OutDir        string
	HTMLPath      string
	Session       string
	PaymentMethod string
	Decline       string
	PrefsPath     string
	ToggleTheme   bool
	NoPayment     bool
	CancelOverlap bool
}

func parseFlags(args []string) (cliConfig, error) {
	var cfg cliConfig
	fs := flag.NewFlagSet("docpay", flag.ContinueOnError)
	fs.StringVar(&cfg.Server, "server", envOr("DOCPAY_SERVER", "http://localhost:8080"), "API base URL")
	fs.StringVar(&cfg.File, "file", "", "Path to document (pdf or docx)")
	fs.StringVar(&cfg.Options, "options", "all", "Analysis topics: all, none or a list of characters,plot,themes,readability,sentiment,style")
	fs.StringVar(&cfg.Layout, "layout", string(workflow.LayoutAccordion), "Result layout (accordion|flat)")
	fs.StringVar(&cfg.Exports, "export", "", "Formats to save after analysis (json,csv,pdf)")
	fs.StringVar(&cfg.OutDir, "out", ".", "Directory for exported files")
	fs.StringVar(&cfg.HTMLPath, "html", "", "Write the rendered result page to this path")
	fs.StringVar(&cfg.Session, "session", os.Getenv("DOCPAY_SESSION"), "Reuse a session id")
	fs.StringVar(&cfg.PaymentMethod, "payment-method", "pm_card_visa", "Stripe payment method used to confirm")
	fs.StringVar(&cfg.Decline, "decline", "", "Dev payments only: decline with this message")
	fs.StringVar(&cfg.PrefsPath, "prefs", prefs.DefaultPath(), "Preferences file")
	fs.BoolVar(&cfg.ToggleTheme, "toggle-theme", false, "Switch between light and dark theme and exit")
	fs.BoolVar(&cfg.NoPayment, "no-payment", false, "Backend analyzes on upload, skip the payment step")
	fs.BoolVar(&cfg.CancelOverlap, "cancel-overlap", false, "A new file cancels an upload in flight")
	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	if !cfg.ToggleTheme && strings.TrimSpace(cfg.File) == "" {
		return cliConfig{}, errors.New("-file is required")
	}
	return cfg, nil
}

func main() {
	telemetry.SetOutput(os.Stderr)

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		exitErr(err.Error())
	}

	store := prefs.New(cfg.PrefsPath)
	if cfg.ToggleTheme {
		theme, err := store.Toggle()
		if err != nil {
			exitErr(err.Error())
		}
		fmt.Printf("theme: %s\n", theme)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, store); err != nil {
		exitErr(err.Error())
	}
}

func run(ctx context.Context, cfg cliConfig, store *prefs.Store) error {
	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	fileName := filepath.Base(cfg.File)

	opts := workflow.DefaultOptions()
	opts.PaymentStep = !cfg.NoPayment
	opts.Layout = workflow.Layout(strings.ToLower(strings.TrimSpace(cfg.Layout)))
	if cfg.CancelOverlap {
		opts.OverlapPolicy = workflow.OverlapCancel
	}
	analysisOpts, err := parseAnalysisOptions(cfg.Options)
	if err != nil {
		return err
	}

	clientOpts := []apiclient.Option{}
	if cfg.Session != "" {
		clientOpts = append(clientOpts, apiclient.WithSessionID(cfg.Session))
	}
	client := apiclient.New(cfg.Server, clientOpts...)
	view := newTerminalView(os.Stderr)
	confirmer := &autoConfirmer{PaymentMethod: cfg.PaymentMethod, Decline: cfg.Decline}
	downloads := fileDownloader{Dir: cfg.OutDir}

	ctrl := workflow.New(opts, client, confirmer, view, downloads)
	ctrl.SetAnalysisOptions(analysisOpts)

	fmt.Fprintf(os.Stderr, "Uploading %s (%s)\n", fileName, humanize.Bytes(uint64(len(data))))
	err = ctrl.HandleFile(ctx, workflow.UploadRequest{
		FileName:         fileName,
		DeclaredMimeType: extract.NormalizeMimeType("", fileName, data),
		SizeBytes:        int64(len(data)),
		Body:             bytes.NewReader(data),
	})
	if err != nil {
		return err
	}

	if opts.PaymentStep {
		if err := ctrl.SubmitPayment(ctx); err != nil {
			return err
		}
	}

	result, ok := ctrl.CurrentAnalysis()
	if !ok {
		return errors.New("no analysis available")
	}
	fmt.Fprintf(os.Stderr, "Session %s, document %s\n", client.SessionID(), result.DocumentID)

	for _, raw := range splitList(cfg.Exports) {
		if err := exportOne(ctx, ctrl, client, downloads, raw); err != nil {
			return err
		}
	}

	if cfg.HTMLPath != "" {
		theme, err := store.Theme()
		if err != nil {
			return err
		}
		page, err := renderPage(pageData{
			Title:    fileName,
			Theme:    theme,
			Body:     view.Rendered(),
			Metadata: result.Metadata,
		})
		if err != nil {
			return err
		}
		if err := writeFile(cfg.HTMLPath, page); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", cfg.HTMLPath)
	}
	return nil
}

func exportOne(ctx context.Context, ctrl *workflow.Controller, client *apiclient.Client, downloads fileDownloader, raw string) error {
	if strings.EqualFold(raw, "pdf") {
		result, ok := ctrl.CurrentAnalysis()
		if !ok {
			return nil
		}
		data, err := client.DownloadPDF(ctx, result.DocumentID)
		if err != nil {
			return fmt.Errorf("download pdf: %w", err)
		}
		return downloads.Save("document-analysis.pdf", "application/pdf", data)
	}
	_, err := ctrl.Export(export.Format(strings.ToLower(raw)))
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return nil
	}
	return err
}

// parseAnalysisOptions maps topic names to AnalysisOptions. "all" enables every topic
// and "none" requests the summary alone.
func parseAnalysisOptions(raw string) (workflow.AnalysisOptions, error) {
	var opts workflow.AnalysisOptions
	for _, name := range splitList(raw) {
		switch strings.ToLower(name) {
		case "all":
			opts = workflow.AllAnalysisOptions()
		case "none":
		case "characters", "character":
			opts.CharacterAnalysis = true
		case "plot":
			opts.PlotAnalysis = true
		case "themes", "thematic":
			opts.ThematicAnalysis = true
		case "readability":
			opts.ReadabilityAssessment = true
		case "sentiment":
			opts.SentimentAnalysis = true
		case "style":
			opts.StyleConsistency = true
		default:
			return workflow.AnalysisOptions{}, fmt.Errorf("unknown analysis option %q", name)
		}
	}
	return opts, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

package workflow

import (
	"doc-analyzer/internal/export"
	"doc-analyzer/internal/sections"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// DefaultMaxUploadBytes is the largest file accepted before any network call.
	DefaultMaxUploadBytes = 20 * 1024 * 1024
)

// Progress steps reported to the view while uploading.
const (
	StepUpload  = "uploadStep"
	StepProcess = "processStep"
	StepAnalyze = "analyzeStep"
)

// Layout selects how the analysis is rendered.
type Layout string

const (
	LayoutAccordion Layout = "accordion"
	LayoutFlat      Layout = "flat"
)

// OverlapPolicy decides what happens to a file that arrives while an upload or payment
// is still in flight.
type OverlapPolicy int

const (
	// OverlapReject ignores the new file and tells the user to wait.
	OverlapReject OverlapPolicy = iota
	// OverlapCancel cancels the in-flight call and starts over with the new file.
	OverlapCancel
)

// Options configures which affordances a controller offers.
type Options struct {
	PaymentStep     bool
	Layout          Layout
	ExportFormats   []export.Format
	Sections        []sections.SectionSpec
	SubmitLabel     string
	ProcessingLabel string
	MaxUploadBytes  int64
	AllowedTypes    []string
	OverlapPolicy   OverlapPolicy
}

// DefaultOptions is the upload, pay and accordion flow.
func DefaultOptions() Options {
	return Options{
		PaymentStep:     true,
		Layout:          LayoutAccordion,
		ExportFormats:   []export.Format{export.FormatJSON, export.FormatCSV},
		Sections:        sections.DefaultSpecs(),
		SubmitLabel:     "Pay ¥3",
		ProcessingLabel: "Processing...",
		MaxUploadBytes:  DefaultMaxUploadBytes,
		AllowedTypes:    []string{MimePDF, MimeDOCX},
		OverlapPolicy:   OverlapReject,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Layout == "" {
		o.Layout = def.Layout
	}
	if o.Sections == nil {
		o.Sections = def.Sections
	}
	if o.SubmitLabel == "" {
		o.SubmitLabel = def.SubmitLabel
	}
	if o.ProcessingLabel == "" {
		o.ProcessingLabel = def.ProcessingLabel
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = def.MaxUploadBytes
	}
	if len(o.AllowedTypes) == 0 {
		o.AllowedTypes = def.AllowedTypes
	}
	return o
}

func (o Options) offers(f export.Format) bool {
	for _, have := range o.ExportFormats {
		if have == f {
			return true
		}
	}
	return false
}

package documents

import (
	"time"

	"doc-analyzer/internal/extract"
)

// Document represents an uploaded document owned by an anonymous session.
type Document struct {
	ID               string
	SessionID        string
	FileName         string
	OriginalFilename string
	MimeType         string
	SizeBytes        int64
	StorageProvider  string
	StorageKey       string
	ExtractedTextKey string
	Title            string
	CharCount        int
	Metadata         extract.Metadata
	AnalysisSummary  string
	// AnalysisSections lists the section ids the stored summary was produced for.
	AnalysisSections []string
	AnalysisCost     int64
	AnalyzedAt       *time.Time
	CreatedAt        time.Time
	DeletedAt        *time.Time
}

// Analyzed reports whether an analysis has been stored for the document.
func (d Document) Analyzed() bool {
	return d.AnalyzedAt != nil
}

// Analysis is the result persisted once a paid analysis completes.
type Analysis struct {
	Summary    string
	Sections   []string
	Cost       int64
	AnalyzedAt time.Time
}

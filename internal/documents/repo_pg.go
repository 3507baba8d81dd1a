package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"doc-analyzer/internal/extract"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, session_id, file_name, original_filename, mime_type, size_bytes, storage_provider, storage_key, extracted_text_key, title, char_count, metadata, analysis_summary, analysis_options, analysis_cost, analyzed_at, created_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    session_id,
    file_name,
    original_filename,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    extracted_text_key,
    title,
    char_count,
    metadata,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	originalName := doc.OriginalFilename
	if originalName == "" {
		originalName = doc.FileName
	}
	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.SessionID,
		doc.FileName,
		originalName,
		doc.MimeType,
		doc.SizeBytes,
		storageProvider,
		doc.StorageKey,
		doc.ExtractedTextKey,
		doc.Title,
		doc.CharCount,
		meta,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a live document by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// UpdateAnalysis stores the analysis for a live document.
func (r *PGRepo) UpdateAnalysis(ctx context.Context, id string, a Analysis) error {
	const query = `
UPDATE documents
SET analysis_summary = $1, analysis_options = $2, analysis_cost = $3, analyzed_at = $4
WHERE id = $5 AND deleted_at IS NULL`
	sections := a.Sections
	if sections == nil {
		sections = []string{}
	}
	opts, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("encode analysis options: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query, a.Summary, opts, a.Cost, a.AnalyzedAt, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListUnpaidBefore returns never-analyzed live documents created before cutoff, oldest first.
func (r *PGRepo) ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE analyzed_at IS NULL AND deleted_at IS NULL AND created_at < $1
ORDER BY created_at ASC
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// MarkDeleted soft-deletes a document.
func (r *PGRepo) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	const query = `
UPDATE documents
SET deleted_at = $1
WHERE id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var meta []byte
	var summary sql.NullString
	var opts []byte
	var cost sql.NullInt64
	var analyzedAt sql.NullTime
	if err := row.Scan(
		&doc.ID,
		&doc.SessionID,
		&doc.FileName,
		&doc.OriginalFilename,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StorageProvider,
		&doc.StorageKey,
		&doc.ExtractedTextKey,
		&doc.Title,
		&doc.CharCount,
		&meta,
		&summary,
		&opts,
		&cost,
		&analyzedAt,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}

	doc.Metadata = extract.DefaultMetadata()
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
			return Document{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if summary.Valid {
		doc.AnalysisSummary = summary.String
	}
	if len(opts) > 0 {
		if err := json.Unmarshal(opts, &doc.AnalysisSections); err != nil {
			return Document{}, fmt.Errorf("decode analysis options: %w", err)
		}
	}
	if cost.Valid {
		doc.AnalysisCost = cost.Int64
	}
	if analyzedAt.Valid {
		doc.AnalyzedAt = &analyzedAt.Time
	}
	return doc, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ DocumentsRepo = (*PGRepo)(nil)

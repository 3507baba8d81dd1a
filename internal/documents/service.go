package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"doc-analyzer/internal/extract"
	"doc-analyzer/internal/shared/storage/object"
	"doc-analyzer/internal/shared/telemetry"
	"doc-analyzer/internal/shared/util"
)

// DefaultMaxUploadBytes caps uploads when the service is not configured otherwise.
const DefaultMaxUploadBytes = 20 << 20

var allowedTypes = map[string]string{
	"pdf":  extract.MimePDF,
	"docx": extract.MimeDOCX,
}

// Service contains business logic for documents.
type Service struct {
	Store          object.ObjectStore
	Repo           DocumentsRepo
	MaxUploadBytes int64
	Now            func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) maxBytes() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return DefaultMaxUploadBytes
}

// Upload validates the file, saves it to object storage, extracts its text and metadata
// and records the document.
func (s *Service) Upload(ctx context.Context, sessionID, fileName string, r io.Reader) (Document, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return Document{}, ErrInvalidInput
	}
	ext := util.Extension(fileName)
	wantMime, ok := allowedTypes[ext]
	if !ok {
		return Document{}, fmt.Errorf("%w: extension %q", ErrInvalidInput, ext)
	}

	safeName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	namespace := sessionID
	if namespace == "" {
		namespace = "anonymous"
	}
	lr := &limitedReader{r: r, remaining: s.maxBytes()}
	storageKey, size, sniffed, err := s.Store.Save(ctx, namespace, fileName, lr)
	if err != nil {
		if lr.exceeded {
			return Document{}, ErrTooLarge
		}
		return Document{}, fmt.Errorf("save upload: %w", err)
	}
	if lr.exceeded {
		s.discardObjects(ctx, storageKey)
		return Document{}, ErrTooLarge
	}

	mimeType := extract.NormalizeMimeType(sniffed, fileName, nil)
	if mimeType != wantMime {
		s.discardObjects(ctx, storageKey)
		return Document{}, fmt.Errorf("%w: content %q does not match .%s", ErrInvalidInput, sniffed, ext)
	}

	res, extractedKey, err := extract.ExtractText(ctx, s.Store, storageKey, mimeType, fileName)
	if err != nil {
		s.discardObjects(ctx, storageKey)
		return Document{}, fmt.Errorf("%w: %v", ErrProcessing, err)
	}

	doc := Document{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		FileName:         safeName,
		OriginalFilename: fileName,
		MimeType:         mimeType,
		SizeBytes:        size,
		StorageProvider:  s.Store.Provider(),
		StorageKey:       storageKey,
		ExtractedTextKey: extractedKey,
		Title:            res.Metadata.Title,
		CharCount:        utf8.RuneCountInString(res.Text),
		Metadata:         res.Metadata,
		CreatedAt:        s.now(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		s.discardObjects(ctx, storageKey, extractedKey)
		return Document{}, err
	}

	telemetry.Info("document.uploaded", map[string]any{
		"document_id": doc.ID,
		"session_id":  sessionID,
		"mime_type":   mimeType,
		"size_bytes":  size,
		"char_count":  doc.CharCount,
		"page_count":  doc.Metadata.PageCount,
	})
	return doc, nil
}

// Get returns a live document.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if strings.TrimSpace(id) == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, id)
}

// Text returns the extracted text of a document, re-extracting from the original when the
// derived copy is missing.
func (s *Service) Text(ctx context.Context, doc Document) (string, error) {
	if doc.ExtractedTextKey != "" {
		body, err := s.Store.Open(ctx, doc.ExtractedTextKey)
		if err == nil {
			defer body.Close()
			raw, err := io.ReadAll(body)
			if err != nil {
				return "", fmt.Errorf("read extracted text: %w", err)
			}
			return string(raw), nil
		}
		if !errors.Is(err, object.ErrNotFound) {
			return "", fmt.Errorf("open extracted text: %w", err)
		}
	}

	res, _, err := extract.ExtractText(ctx, s.Store, doc.StorageKey, doc.MimeType, doc.FileName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProcessing, err)
	}
	return res.Text, nil
}

// SaveAnalysis stores the analysis produced for a document.
func (s *Service) SaveAnalysis(ctx context.Context, id string, a Analysis) error {
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = s.now()
	}
	return s.Repo.UpdateAnalysis(ctx, id, a)
}

// ListUnpaid returns live documents created before cutoff that were never analyzed.
func (s *Service) ListUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]Document, error) {
	return s.Repo.ListUnpaidBefore(ctx, cutoff, limit)
}

// Discard removes the stored objects of a document and marks it deleted.
func (s *Service) Discard(ctx context.Context, doc Document) error {
	for _, key := range []string{doc.StorageKey, doc.ExtractedTextKey} {
		if key == "" {
			continue
		}
		if err := s.Store.Delete(ctx, key); err != nil && !errors.Is(err, object.ErrNotFound) {
			return fmt.Errorf("delete object %s: %w", key, err)
		}
	}
	return s.Repo.MarkDeleted(ctx, doc.ID, s.now())
}

func (s *Service) discardObjects(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.Store.Delete(ctx, key); err != nil && !errors.Is(err, object.ErrNotFound) {
			telemetry.Warn("document.cleanup_failed", map[string]any{
				"storage_key": key,
				"error":       err.Error(),
			})
		}
	}
}

// limitedReader fails once more than remaining bytes have been read.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, ErrTooLarge
	}
	return n, err
}

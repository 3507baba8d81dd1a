package documents

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	localstore "doc-analyzer/internal/shared/storage/object/local"
	"doc-analyzer/internal/shared/testutil"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return &Service{
		Store: localstore.New(dir),
		Repo:  NewMemoryRepo(),
		Now:   func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}, dir
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return n
}

func TestUploadDOCXStoresTextAndMetadata(t *testing.T) {
	svc, dir := newTestService(t)
	data := testutil.DOCX(t, "The Novel", "第一章 开始。", "Second paragraph.")

	doc, err := svc.Upload(context.Background(), "session-1", "novel.docx", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.ID == "" || doc.SessionID != "session-1" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.MimeType != "application/vnd.openxmlformats-officedocument.wordprocessingml.document" {
		t.Fatalf("unexpected mime: %s", doc.MimeType)
	}
	if doc.SizeBytes != int64(len(data)) || doc.StorageProvider != "local" {
		t.Fatalf("unexpected storage fields: %+v", doc)
	}
	if doc.Title != "The Novel" || doc.Metadata.Title != "The Novel" {
		t.Fatalf("unexpected title: %q", doc.Title)
	}
	if doc.CharCount != len([]rune("第一章 开始。\nSecond paragraph.")) {
		t.Fatalf("unexpected char count: %d", doc.CharCount)
	}
	if !strings.HasSuffix(doc.ExtractedTextKey, ".extracted.txt") {
		t.Fatalf("unexpected extracted key: %s", doc.ExtractedTextKey)
	}
	if got := countFiles(t, dir); got != 2 {
		t.Fatalf("expected original and extracted text on disk, got %d files", got)
	}

	stored, err := svc.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	text, err := svc.Text(context.Background(), stored)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "第一章 开始。\nSecond paragraph." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	svc, dir := newTestService(t)

	_, err := svc.Upload(context.Background(), "session-1", "notes.txt", strings.NewReader("hello"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := countFiles(t, dir); got != 0 {
		t.Fatalf("expected nothing stored, got %d files", got)
	}
}

func TestUploadRejectsMismatchedContent(t *testing.T) {
	svc, dir := newTestService(t)

	_, err := svc.Upload(context.Background(), "session-1", "fake.pdf", strings.NewReader("just some text"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := countFiles(t, dir); got != 0 {
		t.Fatalf("expected rejected upload to be removed, got %d files", got)
	}
}

func TestUploadRejectsEmptyName(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Upload(context.Background(), "session-1", "  ", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, dir := newTestService(t)
	svc.MaxUploadBytes = 100
	data := testutil.DOCX(t, "", "body")

	_, err := svc.Upload(context.Background(), "session-1", "big.docx", bytes.NewReader(data))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if got := countFiles(t, dir); got != 0 {
		t.Fatalf("expected nothing stored, got %d files", got)
	}
}

func TestUploadRejectsUnreadableDocument(t *testing.T) {
	svc, dir := newTestService(t)

	_, err := svc.Upload(context.Background(), "session-1", "broken.pdf", strings.NewReader("%PDF-1.4\nnot really a pdf"))
	if !errors.Is(err, ErrProcessing) {
		t.Fatalf("expected ErrProcessing, got %v", err)
	}
	if got := countFiles(t, dir); got != 0 {
		t.Fatalf("expected broken upload to be removed, got %d files", got)
	}
}

func TestSaveAnalysisAndDiscard(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()
	doc, err := svc.Upload(ctx, "session-1", "novel.docx", bytes.NewReader(testutil.DOCX(t, "", "body")))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.SaveAnalysis(ctx, doc.ID, Analysis{Summary: "摘要：好", Sections: []string{"summary"}, Cost: 300}); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	stored, _ := svc.Get(ctx, doc.ID)
	if !stored.Analyzed() || stored.AnalysisSummary != "摘要：好" || stored.AnalysisCost != 300 {
		t.Fatalf("analysis not stored: %+v", stored)
	}

	if err := svc.Discard(ctx, stored); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := svc.Get(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after discard, got %v", err)
	}
	if got := countFiles(t, dir); got != 0 {
		t.Fatalf("expected objects removed, got %d files", got)
	}
}

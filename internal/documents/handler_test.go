package documents_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"doc-analyzer/internal/documents"
	"doc-analyzer/internal/payments"
	"doc-analyzer/internal/shared/server/middleware"
	localstore "doc-analyzer/internal/shared/storage/object/local"
	"doc-analyzer/internal/shared/testutil"
)

type stubCheckout struct {
	calls []string
	err   error
}

func (s *stubCheckout) Checkout(_ context.Context, documentID string) (payments.Checkout, error) {
	s.calls = append(s.calls, documentID)
	if s.err != nil {
		return payments.Checkout{}, s.err
	}
	return payments.Checkout{
		IntentID:       "pi_123",
		ClientSecret:   "pi_123_secret_abc",
		PublishableKey: "pk_test_1",
		Amount:         300,
		Currency:       "cny",
	}, nil
}

func newRouter(t *testing.T, maxBytes int64, pay *stubCheckout) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := &documents.Service{
		Store:          localstore.New(t.TempDir()),
		Repo:           documents.NewMemoryRepo(),
		MaxUploadBytes: maxBytes,
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Session())
	documents.NewHandler(svc, pay).RegisterRoutes(r)
	return r
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestUploadReturnsPaymentSession(t *testing.T) {
	pay := &stubCheckout{}
	router := newRouter(t, 0, pay)

	body, contentType := testutil.MultipartFile(t, "novel.docx", testutil.DOCX(t, "The Novel", "Once upon a time."))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got struct {
		DocumentID     string         `json:"document_id"`
		ClientSecret   string         `json:"client_secret"`
		PublishableKey string         `json:"publishable_key"`
		Metadata       map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.DocumentID == "" || got.ClientSecret != "pi_123_secret_abc" || got.PublishableKey != "pk_test_1" {
		t.Fatalf("unexpected response: %+v", got)
	}
	if got.Metadata["title"] != "The Novel" {
		t.Fatalf("unexpected metadata: %v", got.Metadata)
	}
	if len(pay.calls) != 1 || pay.calls[0] != got.DocumentID {
		t.Fatalf("expected checkout for %s, got %v", got.DocumentID, pay.calls)
	}
}

func TestUploadValidationErrors(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		data     []byte
		maxBytes int64
		status   int
		message  string
	}{
		{name: "wrong type", fileName: "notes.txt", data: []byte("hello"), status: http.StatusBadRequest, message: "Invalid file type"},
		{name: "content mismatch", fileName: "notes.pdf", data: []byte("hello"), status: http.StatusBadRequest, message: "Invalid file type"},
		{name: "too large", fileName: "novel.docx", data: []byte(strings.Repeat("x", 2048)), maxBytes: 1024, status: http.StatusRequestEntityTooLarge, message: "File size must be less than 1.0 KiB"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pay := &stubCheckout{}
			router := newRouter(t, tc.maxBytes, pay)
			body, contentType := testutil.MultipartFile(t, tc.fileName, tc.data)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			if msg := decodeError(t, resp); msg != tc.message {
				t.Fatalf("expected error %q, got %q", tc.message, msg)
			}
			if len(pay.calls) != 0 {
				t.Fatalf("expected no checkout, got %v", pay.calls)
			}
		})
	}
}

func TestUploadWithoutFile(t *testing.T) {
	router := newRouter(t, 0, &stubCheckout{})
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if msg := decodeError(t, resp); msg != "No file provided" {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestUploadCheckoutFailure(t *testing.T) {
	router := newRouter(t, 0, &stubCheckout{err: errors.New("stripe down")})
	body, contentType := testutil.MultipartFile(t, "novel.docx", testutil.DOCX(t, "", "text"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
	if msg := decodeError(t, resp); msg != "Error creating payment" {
		t.Fatalf("unexpected error %q", msg)
	}
}

// Package apiclient talks to the document analysis HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"doc-analyzer/internal/workflow"
)

const (
	// DefaultTimeout bounds a single request; analysis runs on the payment call.
	DefaultTimeout = 3 * time.Minute

	sessionHeader = "X-Session-Id"
	maxErrorBody  = 64 << 10
)

// Client implements workflow.Backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	sessionID string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSessionID reuses an existing session instead of starting a new one.
func WithSessionID(id string) Option {
	return func(c *Client) {
		c.sessionID = strings.TrimSpace(id)
	}
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	return c
}

// SessionID returns the session the client sends with every request.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Upload sends the file as multipart form field "file".
func (c *Client) Upload(ctx context.Context, req workflow.UploadRequest) (workflow.UploadResult, error) {
	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/upload", pr)
	if err != nil {
		return workflow.UploadResult{}, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	go func() {
		pw.CloseWithError(writeFilePart(mw, req))
	}()

	var out workflow.UploadResult
	if err := c.do(httpReq, &out); err != nil {
		return workflow.UploadResult{}, err
	}
	return out, nil
}

// NotifyPaymentSuccess reports a confirmed payment and returns the rendered analysis.
func (c *Client) NotifyPaymentSuccess(ctx context.Context, req workflow.PaymentSuccessRequest) (workflow.AnalysisResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return workflow.AnalysisResult{}, fmt.Errorf("encode payment notification: %w", err)
	}
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/payment/success", bytes.NewReader(body))
	if err != nil {
		return workflow.AnalysisResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out workflow.AnalysisResult
	if err := c.do(httpReq, &out); err != nil {
		return workflow.AnalysisResult{}, err
	}
	return out, nil
}

// ExportPDFURL is the address of the server-rendered PDF for documentID.
func (c *Client) ExportPDFURL(documentID string) string {
	return c.baseURL + "/export/pdf?id=" + url.QueryEscape(documentID)
}

// DownloadPDF fetches the server-rendered PDF for documentID.
func (c *Client) DownloadPDF(ctx context.Context, documentID string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ExportPDFURL(documentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setSession(httpReq)
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	c.adoptSession(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, serverError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setSession(req)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	c.adoptSession(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) setSession(req *http.Request) {
	if id := c.SessionID(); id != "" {
		req.Header.Set(sessionHeader, id)
	}
}

// adoptSession keeps the id the server settled on, which differs when ours was rejected.
func (c *Client) adoptSession(resp *http.Response) {
	id := strings.TrimSpace(resp.Header.Get(sessionHeader))
	if id == "" {
		return
	}
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// serverError reads the {"error": "..."} envelope. Message stays empty when the body
// has none so callers fall back to their own text.
func serverError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var envelope struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)
	return &workflow.ServerError{Status: resp.StatusCode, Message: strings.TrimSpace(envelope.Error)}
}

func writeFilePart(mw *multipart.Writer, req workflow.UploadRequest) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.FileName)))
	contentType := req.DeclaredMimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if req.Body != nil {
		if _, err := io.Copy(part, req.Body); err != nil {
			return fmt.Errorf("copy upload body: %w", err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

var _ workflow.Backend = (*Client)(nil)

package documents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"doc-analyzer/internal/payments"
	"doc-analyzer/internal/shared/metrics"
	"doc-analyzer/internal/shared/server/middleware"
	"doc-analyzer/internal/shared/server/respond"
)

// multipartOverhead is the allowance for form boundaries and headers on top of the file.
const multipartOverhead = 1 << 20

// Checkouter starts a payment for an uploaded document.
type Checkouter interface {
	Checkout(ctx context.Context, documentID string) (payments.Checkout, error)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc      *Service
	Payments Checkouter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, pay Checkouter) *Handler {
	return &Handler{Svc: svc, Payments: pay}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/upload", h.upload)
}

type uploadResponse struct {
	DocumentID     string         `json:"document_id"`
	ClientSecret   string         `json:"client_secret"`
	PublishableKey string         `json:"publishable_key"`
	Amount         int64          `json:"amount"`
	Currency       string         `json:"currency"`
	Metadata       map[string]any `json:"metadata"`
}

func (h *Handler) upload(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	limit := h.Svc.maxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		metrics.IncUploadRejected()
		if isBodyTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", tooLargeMessage(limit), gin.H{"max_bytes": limit})
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file provided", nil)
		return
	}
	if strings.TrimSpace(fileHeader.Filename) == "" {
		metrics.IncUploadRejected()
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file selected", nil)
		return
	}
	if fileHeader.Size > limit {
		metrics.IncUploadRejected()
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", tooLargeMessage(limit), gin.H{"max_bytes": limit})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		metrics.IncUploadRejected()
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file provided", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), sessionID, fileHeader.Filename, file)
	if err != nil {
		metrics.IncUploadRejected()
		switch {
		case errors.Is(err, ErrTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", tooLargeMessage(limit), gin.H{"max_bytes": limit})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_file_type", "Invalid file type", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "processing_error", "Error processing file", nil)
		}
		return
	}
	c.Set("documentId", doc.ID)
	c.Set("statusTransition", "uploaded")

	co, err := h.Payments.Checkout(c.Request.Context(), doc.ID)
	if err != nil {
		metrics.IncUploadRejected()
		respond.Error(c, http.StatusInternalServerError, "payment_error", "Error creating payment", nil)
		return
	}
	c.Set("paymentIntentId", co.IntentID)
	c.Set("statusTransition", "uploaded->awaiting_payment")
	metrics.IncUploadAccepted()

	respond.JSON(c, http.StatusOK, uploadResponse{
		DocumentID:     doc.ID,
		ClientSecret:   co.ClientSecret,
		PublishableKey: co.PublishableKey,
		Amount:         co.Amount,
		Currency:       co.Currency,
		Metadata:       doc.Metadata.Map(),
	})
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func tooLargeMessage(limit int64) string {
	if limit%(1<<20) == 0 {
		return fmt.Sprintf("File size must be less than %dMB", limit>>20)
	}
	return "File size must be less than " + humanize.IBytes(uint64(limit))
}

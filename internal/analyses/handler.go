package analyses

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"doc-analyzer/internal/documents"
	"doc-analyzer/internal/llm"
	"doc-analyzer/internal/payments"
	"doc-analyzer/internal/shared/server/middleware"
	"doc-analyzer/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.POST("/payment/success", h.paymentSuccess)
	rg.GET("/export/pdf", h.exportPDF)
}

type paymentSuccessRequest struct {
	PaymentIntentID string   `json:"payment_intent_id" binding:"required"`
	DocumentID      string   `json:"document_id" binding:"required"`
	AnalysisOptions *Options `json:"analysis_options"`
}

func (h *Handler) paymentSuccess(c *gin.Context) {
	var req paymentSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Missing payment_intent_id or document_id", nil)
		return
	}
	c.Set("documentId", req.DocumentID)
	c.Set("paymentIntentId", req.PaymentIntentID)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result, err := h.Svc.Complete(ctx, Request{
		PaymentIntentID: req.PaymentIntentID,
		DocumentID:      req.DocumentID,
		Options:         req.AnalysisOptions,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput), errors.Is(err, payments.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Missing payment_intent_id or document_id", nil)
		case errors.Is(err, payments.ErrNotSucceeded):
			respond.Error(c, http.StatusPaymentRequired, "payment_incomplete", "Payment has not been completed", nil)
		case errors.Is(err, payments.ErrDocumentMismatch):
			respond.Error(c, http.StatusBadRequest, "payment_mismatch", "Payment does not match this document", nil)
		case errors.Is(err, payments.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Payment not found", nil)
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
		case errors.Is(err, llm.ErrEmptyDocument):
			respond.Error(c, http.StatusUnprocessableEntity, "empty_document", "No text could be extracted from this document", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "analysis_error", "Error processing payment", nil)
		}
		return
	}

	transition := "awaiting_payment->analyzed"
	if result.Reused {
		transition = "analyzed->analyzed"
	}
	c.Set("statusTransition", transition)
	respond.OK(c, result)
}

func (h *Handler) exportPDF(c *gin.Context) {
	documentID := strings.TrimSpace(c.Query("id"))
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}
	c.Set("documentId", documentID)

	data, err := h.Svc.ExportPDF(c.Request.Context(), documentID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
		case errors.Is(err, ErrNotAnalyzed):
			respond.Error(c, http.StatusConflict, "not_analyzed", "Analysis is not available yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "export_error", "Error generating PDF", nil)
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ExportFileName+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventfin/fincore/internal/adapter/http/dto"
	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// RefundService defines the behavior needed by RefundHandler.
type RefundService interface {
	RequestRefund(ctx context.Context, input usecase.RequestRefundInput) (*domain.InvoiceRefund, error)
	Get(ctx context.Context, refundID string) (*domain.InvoiceRefund, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceRefund, error)
}

// RefundHandler handles refund-related HTTP requests.
type RefundHandler struct {
	refundUC RefundService
}

// NewRefundHandler creates a new RefundHandler.
func NewRefundHandler(refundUC RefundService) *RefundHandler {
	return &RefundHandler{refundUC: refundUC}
}

// Request registers a refund against a paid invoice. Issuance happens
// asynchronously through the refund queue.
func (h *RefundHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	refund, err := h.refundUC.RequestRefund(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to request refund", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.RefundFromDomain(refund))
}

// Get retrieves a refund by ID.
func (h *RefundHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing refund ID", "")
		return
	}

	refund, err := h.refundUC.Get(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get refund", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.RefundFromDomain(refund))
}

// ListByInvoice lists refunds registered against one invoice.
func (h *RefundHandler) ListByInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")
	if invoiceID == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	refunds, err := h.refundUC.ListByInvoice(r.Context(), invoiceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list refunds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RefundsFromDomain(refunds))
}

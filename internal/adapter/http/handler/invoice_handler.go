package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventfin/fincore/internal/adapter/http/dto"
	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/provider"
	"github.com/eventfin/fincore/internal/usecase"
)

// InvoiceService defines the behavior needed by InvoiceHandler.
type InvoiceService interface {
	Create(ctx context.Context, input usecase.CreateInvoiceInput) (*domain.Invoice, error)
	Get(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Invoice, error)
	Finalize(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	Delete(ctx context.Context, invoiceID string) error
	Cancel(ctx context.Context, invoiceID, reason string) error
	ExtendAutoCancel(ctx context.Context, invoiceID string, days int) error
}

// MethodLister narrows the provider registry to availability filtering.
type MethodLister interface {
	AvailableFor(ctx context.Context, inv *domain.Invoice) []provider.Wrapper
}

// InvoiceHandler handles invoice-related HTTP requests.
type InvoiceHandler struct {
	invoiceUC InvoiceService
	methods   MethodLister
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceUC InvoiceService, methods MethodLister) *InvoiceHandler {
	return &InvoiceHandler{invoiceUC: invoiceUC, methods: methods}
}

// Create creates a new invoice, optionally finalizing it immediately.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	invoice, err := h.invoiceUC.Create(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create invoice", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.InvoiceFromDomain(invoice))
}

// Get retrieves an invoice by ID.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	invoice, err := h.invoiceUC.Get(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get invoice", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// List lists invoices, newest first.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	invoices, err := h.invoiceUC.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invoices", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListInvoicesResponse{
		Invoices: dto.InvoicesFromDomain(invoices),
		Total:    int64(len(invoices)),
	})
}

// Finalize freezes the invoice rows and renders the invoice document.
func (h *InvoiceHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	invoice, err := h.invoiceUC.Finalize(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to finalize invoice", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// Delete hard-deletes a draft invoice.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	if err := h.invoiceUC.Delete(r.Context(), id); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to delete invoice", err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Cancel cancels a finalized, unpaid invoice.
func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	var req dto.CancelInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.invoiceUC.Cancel(r.Context(), id, req.Reason); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to cancel invoice", err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Extend pushes the auto-cancel deadline forward by a number of days.
func (h *InvoiceHandler) Extend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	var req dto.ExtendInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Days <= 0 {
		writeError(w, http.StatusBadRequest, "days must be positive", "")
		return
	}

	if err := h.invoiceUC.ExtendAutoCancel(r.Context(), id, req.Days); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to extend invoice", err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Methods lists the payment methods the invoice can currently be paid
// with: allow-listed, successfully configured, and not disabled by the
// provider's own availability check.
func (h *InvoiceHandler) Methods(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	invoice, err := h.invoiceUC.Get(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get invoice", err.Error())

		return
	}

	wrappers := h.methods.AvailableFor(r.Context(), invoice)
	out := make([]dto.PaymentMethodResponse, 0, len(wrappers))
	for _, wrap := range wrappers {
		out = append(out, dto.PaymentMethodResponse{
			Name:          wrap.Name,
			CanAutoRefund: wrap.CanAutoRefund(),
		})
	}

	writeJSON(w, http.StatusOK, dto.ListPaymentMethodsResponse{Methods: out})
}

// InvoicePDF serves the stored invoice document.
func (h *InvoiceHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	h.servePDF(w, r, false)
}

// ReceiptPDF serves the stored receipt document.
func (h *InvoiceHandler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	h.servePDF(w, r, true)
}

func (h *InvoiceHandler) servePDF(w http.ResponseWriter, r *http.Request, receipt bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	invoice, err := h.invoiceUC.Get(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get invoice", err.Error())

		return
	}

	doc := invoice.PDFInvoice
	if receipt {
		doc = invoice.PDFReceipt
	}
	if len(doc) == 0 {
		writeError(w, http.StatusNotFound, "document not available", "")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

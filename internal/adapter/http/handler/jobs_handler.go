package handler

import (
	"context"
	"net/http"

	"github.com/eventfin/fincore/internal/adapter/http/dto"
)

// InvoiceJobs are the scheduled invoice maintenance operations.
type InvoiceJobs interface {
	CancelExpired(ctx context.Context) (int, error)
	SendReminders(ctx context.Context) (int, error)
}

// RefundJobs are the scheduled refund maintenance operations.
type RefundJobs interface {
	ProcessQueued(ctx context.Context) (int, error)
	FlagStalled(ctx context.Context) (int, error)
}

// BankTxJobs are the scheduled bank transaction maintenance operations.
type BankTxJobs interface {
	SendPendingReminders(ctx context.Context) (int, error)
}

// JobsHandler exposes the scheduled maintenance operations. They are
// triggered over HTTP by an external scheduler (cron hitting the CLI),
// which keeps the jobs observable and manually re-runnable. Every job is
// idempotent, so overlapping triggers are harmless.
type JobsHandler struct {
	invoiceUC InvoiceJobs
	refundUC  RefundJobs
	bankTxUC  BankTxJobs
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(invoiceUC InvoiceJobs, refundUC RefundJobs, bankTxUC BankTxJobs) *JobsHandler {
	return &JobsHandler{invoiceUC: invoiceUC, refundUC: refundUC, bankTxUC: bankTxUC}
}

// CancelExpired cancels invoices whose auto-cancel deadline has passed.
func (h *JobsHandler) CancelExpired(w http.ResponseWriter, r *http.Request) {
	n, err := h.invoiceUC.CancelExpired(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to cancel expired invoices", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JobResultResponse{Processed: n})
}

// SendReminders sends one reminder per overdue invoice.
func (h *JobsHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	n, err := h.invoiceUC.SendReminders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send reminders", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JobResultResponse{Processed: n})
}

// ProcessRefunds issues queued refunds through their providers. Partial
// failure still reports the refunds that did go out.
func (h *JobsHandler) ProcessRefunds(w http.ResponseWriter, r *http.Request) {
	n, err := h.refundUC.ProcessQueued(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process refund queue", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JobResultResponse{Processed: n})
}

// FlagStalled alerts on refunds issued but unconfirmed past the grace
// window.
func (h *JobsHandler) FlagStalled(w http.ResponseWriter, r *http.Request) {
	n, err := h.refundUC.FlagStalled(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to flag stalled refunds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JobResultResponse{Processed: n})
}

// PendingReminders alerts on bank rows parked longer than the reminder
// age.
func (h *JobsHandler) PendingReminders(w http.ResponseWriter, r *http.Request) {
	n, err := h.bankTxUC.SendPendingReminders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to send pending reminders", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.JobResultResponse{Processed: n})
}

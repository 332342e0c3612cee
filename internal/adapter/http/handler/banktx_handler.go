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

// BankTransactionService defines the behavior needed by
// BankTransactionHandler for the parked-row operations.
type BankTransactionService interface {
	List(ctx context.Context, limit, offset int) ([]*domain.PendingBankTransaction, error)
	Get(ctx context.Context, id string) (*domain.PendingBankTransaction, error)
	Match(ctx context.Context, input usecase.MatchInput) (domain.PaymentResult, error)
	Discard(ctx context.Context, id string) error
}

// StatementProcessor reconciles free-text bank statement rows.
type StatementProcessor interface {
	ProcessBankPayment(ctx context.Context, input usecase.BankPaymentInput) (domain.PaymentResult, error)
}

// BankTransactionHandler handles pending bank transaction HTTP requests.
type BankTransactionHandler struct {
	bankTxUC  BankTransactionService
	paymentUC StatementProcessor
	providers usecase.ProviderResolver
}

// NewBankTransactionHandler creates a new BankTransactionHandler.
func NewBankTransactionHandler(bankTxUC BankTransactionService, paymentUC StatementProcessor, providers usecase.ProviderResolver) *BankTransactionHandler {
	return &BankTransactionHandler{bankTxUC: bankTxUC, paymentUC: paymentUC, providers: providers}
}

// List lists parked bank transactions awaiting manual review.
func (h *BankTransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	txs, err := h.bankTxUC.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bank transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BankTransactionsFromDomain(txs))
}

// Get retrieves a pending bank transaction by ID.
func (h *BankTransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	tx, err := h.bankTxUC.Get(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get bank transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.BankTransactionFromDomain(tx))
}

// Match applies a parked transaction to an invoice as a payment.
func (h *BankTransactionHandler) Match(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.MatchBankTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.bankTxUC.Match(r.Context(), usecase.MatchInput{
		TransactionID: id,
		InvoiceID:     req.InvoiceID,
		TransCost:     req.TransCost,
		IncomeAccount: req.IncomeAccount,
		CostAccount:   req.CostAccount,
	})
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to match bank transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentResultResponse{Result: result.String()})
}

// Discard drops a parked transaction that will never match an invoice.
func (h *BankTransactionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	if err := h.bankTxUC.Discard(r.Context(), id); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to discard bank transaction", err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Statement reconciles one free-text bank statement row. Unmatched rows
// end up parked rather than rejected, so this always answers with the
// reconciliation result.
func (h *BankTransactionHandler) Statement(w http.ResponseWriter, r *http.Request) {
	var req dto.BankStatementRowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := usecase.BankPaymentInput{
		TransText: req.TransText,
		Sender:    req.Sender,
		Amount:    req.Amount,
		Method:    "banktransfer",
		CanReturn: req.CanReturn,
	}

	// Bank transfers settle into the accounts the method is configured
	// with; there is no per-settlement fee report for statement rows.
	if wrap, ok := h.providers.Resolve(input.Method); ok && wrap.OK {
		if acc, ok := wrap.Provider.(provider.Accounted); ok {
			input.IncomeAccount = acc.IncomeAccount()
			input.CostAccount = acc.FeeAccount()
		}
	}

	result, err := h.paymentUC.ProcessBankPayment(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to process statement row", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentResultResponse{Result: result.String()})
}

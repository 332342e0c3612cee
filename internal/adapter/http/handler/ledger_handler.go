package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/adapter/http/dto"
	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.JournalEntry, error)
	CloseEntry(ctx context.Context, entryID string, items []domain.EntryItem) error
	AccountBalance(ctx context.Context, accountNumber int) (decimal.Decimal, error)
	CheckConsistency(ctx context.Context) error
}

// LedgerHandler handles journal-related HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// CreateEntry creates a journal entry.
func (h *LedgerHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledgerUC.CreateEntry(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create entry", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// CloseEntry completes an open entry with additional postings.
func (h *LedgerHandler) CloseEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	var req dto.CloseEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.ledgerUC.CloseEntry(r.Context(), id, req.ToDomainItems()); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to close entry", err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Balance reports the balance of one account across all entries.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account number", err.Error())
		return
	}

	balance, err := h.ledgerUC.AccountBalance(r.Context(), number)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get balance", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		AccountNumber: number,
		Balance:       balance,
	})
}

// Consistency verifies that no closed entry is unbalanced.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	if err := h.ledgerUC.CheckConsistency(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "ledger inconsistent", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "consistent"})
}

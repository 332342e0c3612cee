package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/eventfin/fincore/internal/adapter/http/dto"
	"github.com/eventfin/fincore/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvoiceNotFound),
		errors.Is(err, domain.ErrRefundNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrYearNotFound),
		errors.Is(err, domain.ErrObjectNotFound),
		errors.Is(err, domain.ErrBankTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvoiceFinalized),
		errors.Is(err, domain.ErrInvoiceNotFinalized),
		errors.Is(err, domain.ErrInvoiceDeleted),
		errors.Is(err, domain.ErrInvoicePaid),
		errors.Is(err, domain.ErrInvoiceNotPaid),
		errors.Is(err, domain.ErrEntryClosed),
		errors.Is(err, domain.ErrYearClosed),
		errors.Is(err, domain.ErrRefundAlreadyIssued),
		errors.Is(err, domain.ErrProviderNotRefundable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyInvoice),
		errors.Is(err, domain.ErrEmptyEntry),
		errors.Is(err, domain.ErrZeroAmountItem),
		errors.Is(err, domain.ErrUnroundedAmount),
		errors.Is(err, domain.ErrUnbalancedEntry),
		errors.Is(err, domain.ErrObjectInactive),
		errors.Is(err, domain.ErrInvalidRefundAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

package domain

import "errors"

var (
	// Ledger errors
	ErrZeroAmountItem  = errors.New("journal item has a zero amount")
	ErrUnroundedAmount = errors.New("amount is not rounded to two decimal places")
	ErrUnbalancedEntry = errors.New("journal entry is not balanced")
	ErrEmptyEntry      = errors.New("journal entry has no items")
	ErrYearNotFound    = errors.New("fiscal year not found")
	ErrYearClosed      = errors.New("fiscal year is not open for new entries")
	ErrAccountNotFound = errors.New("account not found")
	ErrObjectNotFound  = errors.New("object not found")
	ErrObjectInactive  = errors.New("object is not active for new postings")
	ErrEntryNotFound   = errors.New("journal entry not found")
	ErrEntryClosed     = errors.New("journal entry is already closed")

	// Invoice errors
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvoiceFinalized    = errors.New("invoice is already finalized")
	ErrInvoiceNotFinalized = errors.New("invoice is not finalized")
	ErrInvoiceDeleted      = errors.New("invoice has been canceled")
	ErrInvoicePaid         = errors.New("invoice is already paid")
	ErrInvoiceNotPaid      = errors.New("invoice is not paid")
	ErrEmptyInvoice        = errors.New("invoice has no rows")

	// Refund errors
	ErrRefundNotFound        = errors.New("refund not found")
	ErrInvalidRefundAmount   = errors.New("refund amount is out of range")
	ErrRefundAlreadyIssued   = errors.New("refund has already been issued")
	ErrProviderNotRefundable = errors.New("payment provider does not support automated refunds")

	// Processor errors
	ErrProcessorNotFound = errors.New("invoice processor not registered")

	// Bank transaction errors
	ErrBankTransactionNotFound = errors.New("pending bank transaction not found")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

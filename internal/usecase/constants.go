package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction.
	// This prevents long-running transactions from blocking tables.
	DefaultTransactionTimeout = 10 * time.Second

	// ProviderCallTimeout bounds outbound provider API calls (refund
	// issuance, fee lookups). A timeout leaves the refund queued and safe
	// to retry on the next scheduler run.
	ProviderCallTimeout = 30 * time.Second

	// StalledRefundGrace is how long an issued refund may wait for
	// provider confirmation before it is alerted on.
	StalledRefundGrace = 3 * 24 * time.Hour

	// PendingBankTxReminderAge is how old an unmatched bank transaction
	// may get before operators are reminded.
	PendingBankTxReminderAge = 72 * time.Hour
)

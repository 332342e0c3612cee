package domain

import "time"

// InvoiceHistory is one line in the human-readable timeline kept per
// invoice. Write-only from the core's perspective.
type InvoiceHistory struct {
	ID        string
	InvoiceID string
	Time      time.Time
	Text      string
}

// InvoiceLogLine is one line in the global append-only settlement/refund
// log read by external reporting.
type InvoiceLogLine struct {
	ID      string
	Time    time.Time
	Message string
}

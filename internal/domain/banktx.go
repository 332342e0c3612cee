package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingBankTransaction is an incoming bank-statement row that could not
// be matched to any invoice and is waiting for manual or automatic
// assignment. CanReturn marks rows eligible for an outbound refund-style
// return to the sender.
type PendingBankTransaction struct {
	ID        string
	Method    string
	Amount    decimal.Decimal
	TransText string
	Sender    string
	CanReturn bool
	CreatedAt time.Time
}

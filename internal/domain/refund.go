package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceRefund tracks money returned to a payer. The lifecycle is
// registered -> issued -> completed, each a one-way timestamp transition.
// Issued means the provider accepted the refund (API call succeeded or a
// manual bank action was flagged); completed means the provider confirmed
// settlement. Issued-but-not-completed beyond the grace window is an
// anomaly that gets alerted on, never auto-retried.
type InvoiceRefund struct {
	ID        string
	InvoiceID string

	Reason    string
	Amount    decimal.Decimal
	VATAmount decimal.Decimal
	VATRate   decimal.Decimal

	Registered time.Time
	Issued     *time.Time
	Completed  *time.Time

	PaymentReference string
}

// FullAmount is the gross amount returned to the payer, VAT included.
func (r *InvoiceRefund) FullAmount() decimal.Decimal {
	return r.Amount.Add(r.VATAmount)
}

// ValidateRefundAmounts checks a refund request against the invoice it
// belongs to: the net amount within [1, total-vat], the VAT amount within
// [0, totalVat], both rounded to cents.
func ValidateRefundAmounts(inv *Invoice, amount, vatAmount decimal.Decimal) error {
	if !RoundedToCents(amount) || !RoundedToCents(vatAmount) {
		return ErrUnroundedAmount
	}
	one := decimal.NewFromInt(1)
	if amount.LessThan(one) || amount.GreaterThan(inv.TotalAmount.Sub(inv.TotalVAT)) {
		return ErrInvalidRefundAmount
	}
	if vatAmount.IsNegative() || vatAmount.GreaterThan(inv.TotalVAT) {
		return ErrInvalidRefundAmount
	}
	return nil
}

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UnfinalizedTotal is the sentinel total carried by an invoice until it is
// finalized and the row-derived totals are frozen in.
var UnfinalizedTotal = decimal.NewFromInt(-1)

// Invoice is a billable document. Rows are editable until finalization,
// after which only a narrow allow-list of fields may change while unpaid.
// PaidAt being set means the invoice is paid; Deleted means canceled.
type Invoice struct {
	ID     string
	Number int64

	RecipientUserID  string
	RecipientName    string
	RecipientEmail   string
	RecipientAddress string

	Title       string
	InvoiceDate time.Time
	DueDate     time.Time
	CancelTime  *time.Time

	TotalAmount decimal.Decimal
	TotalVAT    decimal.Decimal

	Finalized      bool
	Deleted        bool
	DeletionReason string

	PaidAt         *time.Time
	PaymentDetails string
	PaidUsing      string

	Processor   string
	ProcessorID string

	// AccountingAccount and AccountingObject are the ledger coordinates to
	// post against once the invoice is paid. A zero account means the
	// cost-center was unknown at creation time and the payment entry is
	// left open for manual completion.
	AccountingAccount int
	AccountingObject  string

	RemindersSent   int
	RecipientSecret string
	AllowedMethods  []string

	PDFInvoice []byte
	PDFReceipt []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceRow is a single line item. Rows are frozen once the invoice is
// finalized. VATRate is a percentage (e.g. 25 for 25%).
type InvoiceRow struct {
	ID        string
	InvoiceID string
	Text      string
	RowAmount decimal.Decimal
	RowCount  int
	VATRate   decimal.Decimal
}

// IsPaid reports whether a payment has been matched against the invoice.
func (i *Invoice) IsPaid() bool {
	return i.PaidAt != nil
}

// Ref is the human-readable reference that appears on bank statements and
// payment pages, e.g. "Fincore Invoice #17 - Conference registration".
func (i *Invoice) Ref(prefix string) string {
	return fmt.Sprintf("%s #%d - %s", prefix, i.Number, i.Title)
}

// CanCancel checks the state machine guard for cancellation. Paid and
// Canceled are mutually exclusive, and re-canceling a canceled invoice is
// a programmer error rather than a no-op.
func (i *Invoice) CanCancel() error {
	if i.Deleted {
		return ErrInvoiceDeleted
	}
	if i.IsPaid() {
		return ErrInvoicePaid
	}
	if !i.Finalized {
		return ErrInvoiceNotFinalized
	}
	return nil
}

// RowTotal is the net amount of a row (amount times count).
func (r *InvoiceRow) RowTotal() decimal.Decimal {
	return r.RowAmount.Mul(decimal.NewFromInt(int64(r.RowCount)))
}

// RowVAT is the VAT carried by a row, rounded to cents.
func (r *InvoiceRow) RowVAT() decimal.Decimal {
	if r.VATRate.IsZero() {
		return decimal.Zero
	}
	return r.RowTotal().Mul(r.VATRate).Div(decimal.NewFromInt(100)).Round(2)
}

// InvoiceTotals computes the frozen totals for a set of rows: the VAT sum
// and the gross total including VAT.
func InvoiceTotals(rows []InvoiceRow) (total, vat decimal.Decimal) {
	total = decimal.Zero
	vat = decimal.Zero
	for _, r := range rows {
		total = total.Add(r.RowTotal())
		vat = vat.Add(r.RowVAT())
	}
	return total.Add(vat), vat
}

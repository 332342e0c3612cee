package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventfin/fincore/internal/domain"
)

func testInvoice() (*domain.Invoice, []*domain.InvoiceRow) {
	paidAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	inv := &domain.Invoice{
		ID:             "inv-1",
		Number:         42,
		RecipientName:  "Ada Lovelace",
		RecipientEmail: "ada@example.org",
		Title:          "Conference registration",
		InvoiceDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount:    decimal.RequireFromString("339.60"),
		TotalVAT:       decimal.RequireFromString("59.60"),
		PaidAt:         &paidAt,
		PaidUsing:      "cardgate",
	}

	rows := []*domain.InvoiceRow{
		{Text: "Full ticket", RowAmount: decimal.RequireFromString("200.00"), RowCount: 1, VATRate: decimal.NewFromInt(25)},
		{Text: "Workshop", RowAmount: decimal.RequireFromString("40.00"), RowCount: 2, VATRate: decimal.NewFromInt(12)},
	}

	return inv, rows
}

func TestRenderInvoice(t *testing.T) {
	t.Parallel()

	r, err := New("Acme Events")
	require.NoError(t, err)

	inv, rows := testInvoice()
	inv.PaidAt = nil

	out, err := r.RenderInvoice(inv, rows)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "INVOICE #42")
	assert.Contains(t, text, "Acme Events")
	assert.Contains(t, text, "Ada Lovelace")
	assert.Contains(t, text, "Full ticket")
	assert.Contains(t, text, "Workshop")
	assert.Contains(t, text, "Total due: 339.60")
	assert.Contains(t, text, "Total VAT: 59.60")
	assert.NotContains(t, text, "Paid")
}

func TestRenderReceiptIncludesPaymentLine(t *testing.T) {
	t.Parallel()

	r, err := New("Acme Events")
	require.NoError(t, err)

	inv, rows := testInvoice()

	out, err := r.RenderReceipt(inv, rows)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "RECEIPT #42")
	assert.Contains(t, text, "Paid 2026-03-14 via cardgate")
}

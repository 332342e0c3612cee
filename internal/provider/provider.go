// Package provider abstracts payment providers behind a capability
// interface. Every provider can initiate a payment; everything else
// (automated refunds, fee reporting, availability windows, webhook
// signatures) is an optional capability discovered by type assertion.
package provider

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
)

var (
	// ErrFeeUnknown means the provider cannot report fees for this payment.
	ErrFeeUnknown = errors.New("payment fee unknown")
	// ErrNotSettled means the payment has not settled yet, so fees are not
	// final.
	ErrNotSettled = errors.New("payment not settled yet")
	// ErrNotFound means the registry has no provider under that name.
	ErrNotFound = errors.New("payment provider not found")
)

// Provider is the capability every payment method must have: producing a
// payment initiation target (redirect URL, bank instructions page) for a
// finalized invoice.
type Provider interface {
	Name() string
	BuildPaymentInitiation(ctx context.Context, invoice *domain.Invoice) (string, error)
}

// AutoRefunder is implemented by providers whose API can issue refunds.
// Providers without it are manual-refund-only. AutoRefund returns the
// provider's reference for the issued refund.
type AutoRefunder interface {
	AutoRefund(ctx context.Context, invoice *domain.Invoice, refund *domain.InvoiceRefund) (string, error)
}

// FeeReporter reports the transaction fee the provider charged for a paid
// invoice. Implementations return ErrFeeUnknown or ErrNotSettled when no
// figure is available.
type FeeReporter interface {
	PaymentFees(ctx context.Context, invoice *domain.Invoice) (decimal.Decimal, error)
}

// MethodDetailer describes how an invoice was actually paid, e.g.
// "Credit Card (visa)".
type MethodDetailer interface {
	UsedMethodDetails(ctx context.Context, invoice *domain.Invoice) (string, error)
}

// AvailabilityChecker lets a provider disable itself per invoice, e.g. a
// slow-settling bank transfer close to the auto-cancel deadline.
type AvailabilityChecker interface {
	Available(ctx context.Context, invoice *domain.Invoice) bool
	UnavailableReason(ctx context.Context, invoice *domain.Invoice) string
}

// WebhookValidator authenticates inbound webhook deliveries.
type WebhookValidator interface {
	ValidateWebhookSignature(payload []byte, signature string) error
}

// Accounted is implemented by providers that settle into a known ledger
// account; the reconciliation engine posts against these coordinates.
type Accounted interface {
	IncomeAccount() int
	FeeAccount() int
}

// CanAutoRefund reports whether a provider supports API-issued refunds.
func CanAutoRefund(p Provider) bool {
	_, ok := p.(AutoRefunder)
	return ok
}

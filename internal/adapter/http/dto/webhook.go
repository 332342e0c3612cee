package dto

import "github.com/shopspring/decimal"

// Webhook event types accepted from payment providers.
const (
	WebhookEventPaymentSettled  = "payment.settled"
	WebhookEventRefundCompleted = "refund.completed"
)

// WebhookRequest is the normalized payload providers deliver on
// settlement and refund confirmation. EventID is the provider's unique
// delivery identifier and drives deduplication of redeliveries.
type WebhookRequest struct {
	Event   string `json:"event"`
	EventID string `json:"event_id"`

	InvoiceID string `json:"invoice_id,omitempty"`
	RefundID  string `json:"refund_id,omitempty"`

	Amount decimal.Decimal `json:"amount"`
	Fee    decimal.Decimal `json:"fee"`

	// Details is the provider-prefixed transaction reference persisted
	// with the payment, e.g. "cardgate:ch_9f2".
	Details string   `json:"details,omitempty"`
	URLs    []string `json:"urls,omitempty"`
}

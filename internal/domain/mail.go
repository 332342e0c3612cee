package domain

import "time"

// Mail templates used by the core. Rendering and delivery belong to the
// notification subsystem; the core only queues.
const (
	MailTemplateReceipt         = "invoices/receipt"
	MailTemplateCancellation    = "invoices/canceled"
	MailTemplateReminder        = "invoices/reminder"
	MailTemplateStalledRefunds  = "alerts/stalled_refunds"
	MailTemplatePendingBankTx   = "alerts/pending_banktx"
	MailTemplateYearAutoCreated = "alerts/year_created"
	MailTemplateRefundFailure   = "alerts/refund_failure"
)

// QueuedMail is a notification queued for asynchronous delivery. Queuing
// inside the same transaction as the money movement keeps the "send"
// contract atomic with the financial effect.
type QueuedMail struct {
	ID        string
	Recipient string
	Subject   string
	Template  string
	Data      map[string]any
	CreatedAt time.Time
	SentAt    *time.Time
}

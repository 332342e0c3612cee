package domain

// ProcessorEventKind enumerates the financial events an invoice processor
// can be notified about. A processor is an external subsystem hook, e.g.
// "mark this conference registration confirmed".
type ProcessorEventKind int

const (
	PaymentConfirmed ProcessorEventKind = iota
	InvoiceCanceled
	RefundCompleted
)

func (k ProcessorEventKind) String() string {
	switch k {
	case PaymentConfirmed:
		return "payment.confirmed"
	case InvoiceCanceled:
		return "invoice.canceled"
	case RefundCompleted:
		return "refund.completed"
	default:
		return "unknown"
	}
}

// ProcessorEvent is dispatched to the handler registered under the
// invoice's Processor name. Handler failure aborts the transaction that
// produced the event.
type ProcessorEvent struct {
	Kind    ProcessorEventKind
	Invoice *Invoice
	Refund  *InvoiceRefund
}

// PaymentResult is the outcome of a payment matching attempt. Callers
// branch on the code, so each precondition failure maps to its own value.
type PaymentResult int

const (
	PaymentUnknown PaymentResult = iota
	PaymentOK
	PaymentNotFound
	PaymentNotSent
	PaymentAlreadyPaid
	PaymentDeleted
	PaymentInvalidAmount
	PaymentProcessorFail
)

func (r PaymentResult) String() string {
	switch r {
	case PaymentOK:
		return "ok"
	case PaymentNotFound:
		return "not_found"
	case PaymentNotSent:
		return "not_sent"
	case PaymentAlreadyPaid:
		return "already_paid"
	case PaymentDeleted:
		return "deleted"
	case PaymentInvalidAmount:
		return "invalid_amount"
	case PaymentProcessorFail:
		return "processor_fail"
	default:
		return "unknown"
	}
}

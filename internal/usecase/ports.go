package usecase

import (
	"context"

	"github.com/eventfin/fincore/internal/domain"
)

// Renderer produces the invoice and receipt documents stored alongside the
// invoice. The actual PDF layout engine is an external collaborator; the
// core only needs rendered bytes.
type Renderer interface {
	RenderInvoice(invoice *domain.Invoice, rows []*domain.InvoiceRow) ([]byte, error)
	RenderReceipt(invoice *domain.Invoice, rows []*domain.InvoiceRow) ([]byte, error)
}

// ProcessorDispatcher delivers financial events to the subsystem hook
// named by the invoice's Processor field. A returned error aborts the
// transaction that produced the event.
type ProcessorDispatcher interface {
	Dispatch(ctx context.Context, event domain.ProcessorEvent) error
}

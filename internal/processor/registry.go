// Package processor dispatches financial events to the subsystems that own
// an invoice, replacing ad-hoc callback injection with a registry resolved
// at startup.
package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/eventfin/fincore/internal/domain"
)

// Handler receives the financial events for invoices registered under its
// name. Handlers run inside the transaction that produced the event: an
// error aborts the payment, cancellation or refund completion entirely.
type Handler interface {
	HandleInvoiceEvent(ctx context.Context, event domain.ProcessorEvent) error
}

// Registry maps processor names to handlers. Subsystems register at
// startup; invoices reference handlers by name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a processor name.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Dispatch implements usecase.ProcessorDispatcher. Events for invoices
// without a processor are dropped; a named but unregistered processor is
// an error, because silently skipping the side effect would desynchronize
// the owning subsystem.
func (r *Registry) Dispatch(ctx context.Context, event domain.ProcessorEvent) error {
	if event.Invoice == nil || event.Invoice.Processor == "" {
		return nil
	}
	r.mu.RLock()
	h, ok := r.handlers[event.Invoice.Processor]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrProcessorNotFound, event.Invoice.Processor)
	}
	return h.HandleInvoiceEvent(ctx, event)
}

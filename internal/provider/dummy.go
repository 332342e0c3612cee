package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/eventfin/fincore/internal/domain"
)

// Dummy is an in-memory provider used in tests and local development. It
// supports autorefund and records every call.
type Dummy struct {
	name string

	mu      sync.Mutex
	Refunds []string
	// FailRefunds makes AutoRefund return an error, simulating a flaky
	// provider API.
	FailRefunds bool
}

// NewDummy builds the test provider.
func NewDummy(cfg Config) (Provider, error) {
	if cfg.Settings["broken"] == "true" {
		return nil, fmt.Errorf("dummy %s: deliberately broken", cfg.Name)
	}
	return &Dummy{name: cfg.Name}, nil
}

func (d *Dummy) Name() string { return d.name }

func (d *Dummy) BuildPaymentInitiation(_ context.Context, inv *domain.Invoice) (string, error) {
	return "/dummy/pay/" + inv.ID, nil
}

func (d *Dummy) AutoRefund(_ context.Context, inv *domain.Invoice, refund *domain.InvoiceRefund) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailRefunds {
		return "", fmt.Errorf("dummy %s: refund API unavailable", d.name)
	}
	ref := fmt.Sprintf("dummy refund %s/%s", inv.ID, refund.ID)
	d.Refunds = append(d.Refunds, ref)
	return ref, nil
}

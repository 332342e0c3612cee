package provider

import (
	"context"
	"fmt"

	"github.com/eventfin/fincore/internal/domain"
)

// Kind names a provider implementation. The registry maps configuration
// to implementations statically at startup; there is no reflection or
// class-name lookup involved.
type Kind string

const (
	KindBankTransfer Kind = "banktransfer"
	KindCardGate     Kind = "cardgate"
	KindWalletPay    Kind = "walletpay"
	KindDummy        Kind = "dummy"
)

// Config describes one configured payment method.
type Config struct {
	Name     string
	Kind     Kind
	Settings map[string]string
}

// Builder constructs a provider from its configuration.
type Builder func(cfg Config) (Provider, error)

var builders = map[Kind]Builder{
	KindBankTransfer: NewBankTransfer,
	KindCardGate:     NewCardGate,
	KindWalletPay:    NewWalletPay,
	KindDummy:        NewDummy,
}

// Wrapper carries a resolved provider together with its construction
// status. A misconfigured provider yields OK=false instead of an error so
// one broken method cannot break invoice listing.
type Wrapper struct {
	Name     string
	Provider Provider
	OK       bool
	Err      error
}

// CanAutoRefund reports whether the wrapped provider is usable for
// API-issued refunds.
func (w Wrapper) CanAutoRefund() bool {
	return w.OK && CanAutoRefund(w.Provider)
}

// Registry holds the configured payment methods, resolved once at startup.
type Registry struct {
	wrappers map[string]Wrapper
	order    []string
}

// NewRegistry builds every configured provider. Construction failures are
// recorded on the wrapper rather than returned.
func NewRegistry(configs []Config) *Registry {
	r := &Registry{wrappers: make(map[string]Wrapper, len(configs))}
	for _, cfg := range configs {
		w := Wrapper{Name: cfg.Name}
		build, ok := builders[cfg.Kind]
		if !ok {
			w.Err = fmt.Errorf("unknown provider kind %q", cfg.Kind)
		} else if p, err := build(cfg); err != nil {
			w.Err = err
		} else {
			w.Provider = p
			w.OK = true
		}
		r.wrappers[cfg.Name] = w
		r.order = append(r.order, cfg.Name)
	}
	return r
}

// Resolve returns the wrapper registered under name.
func (r *Registry) Resolve(name string) (Wrapper, bool) {
	w, ok := r.wrappers[name]
	return w, ok
}

// All returns every configured method in configuration order, broken ones
// included (with OK=false).
func (r *Registry) All() []Wrapper {
	out := make([]Wrapper, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.wrappers[name])
	}
	return out
}

// AvailableFor returns the methods an invoice may currently be paid with:
// allow-listed on the invoice, successfully constructed, and not disabled
// by the provider's own availability check.
func (r *Registry) AvailableFor(ctx context.Context, inv *domain.Invoice) []Wrapper {
	var out []Wrapper
	for _, name := range inv.AllowedMethods {
		w, ok := r.wrappers[name]
		if !ok || !w.OK {
			continue
		}
		if ac, ok := w.Provider.(AvailabilityChecker); ok && !ac.Available(ctx, inv) {
			continue
		}
		out = append(out, w)
	}
	return out
}

package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/adapter/http/handler"
	apimiddleware "github.com/eventfin/fincore/internal/adapter/http/middleware"
	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/provider"
	"github.com/eventfin/fincore/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"title":"Conference registration"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /p/{provider}/webhook",
		"POST /api/v1/invoices/",
		"GET /api/v1/invoices/",
		"GET /api/v1/invoices/{id}",
		"GET /api/v1/invoices/{id}/methods",
		"POST /api/v1/invoices/{id}/finalize",
		"POST /api/v1/invoices/{id}/cancel",
		"POST /api/v1/refunds/",
		"GET /api/v1/banktransactions/",
		"POST /api/v1/banktransactions/{id}/match",
		"POST /api/v1/ledger/entries",
		"POST /api/v1/jobs/process-refunds",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	resolver := stubResolver{}

	cfg := RouterConfig{
		InvoiceHandler: handler.NewInvoiceHandler(&stubInvoiceService{}, resolver),
		LedgerHandler:  handler.NewLedgerHandler(&stubLedgerService{}),
		RefundHandler:  handler.NewRefundHandler(&stubRefundService{}),
		BankTxHandler:  handler.NewBankTransactionHandler(&stubBankTxService{}, &stubStatementProcessor{}, resolver),
		WebhookHandler: handler.NewWebhookHandler(
			&stubSettlementProcessor{},
			&stubRefundCompleter{},
			resolver,
			&stubIdempotencyStore{},
			time.Hour,
			zerolog.Nop(),
		),
		JobsHandler:   handler.NewJobsHandler(&stubInvoiceService{}, &stubRefundService{}, &stubBankTxService{}),
		HealthHandler: &handler.HealthHandler{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubResolver struct{}

func (stubResolver) Resolve(name string) (provider.Wrapper, bool) {
	return provider.Wrapper{}, false
}

func (stubResolver) AvailableFor(ctx context.Context, inv *domain.Invoice) []provider.Wrapper {
	return nil
}

type stubInvoiceService struct{}

func (stubInvoiceService) Create(ctx context.Context, input usecase.CreateInvoiceInput) (*domain.Invoice, error) {
	return &domain.Invoice{ID: "inv"}, nil
}

func (stubInvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return &domain.Invoice{ID: id}, nil
}

func (stubInvoiceService) List(ctx context.Context, limit, offset int) ([]*domain.Invoice, error) {
	return []*domain.Invoice{}, nil
}

func (stubInvoiceService) Finalize(ctx context.Context, id string) (*domain.Invoice, error) {
	return &domain.Invoice{ID: id}, nil
}

func (stubInvoiceService) Delete(ctx context.Context, id string) error { return nil }

func (stubInvoiceService) Cancel(ctx context.Context, id, reason string) error { return nil }

func (stubInvoiceService) ExtendAutoCancel(ctx context.Context, id string, days int) error {
	return nil
}

func (stubInvoiceService) CancelExpired(ctx context.Context) (int, error) { return 0, nil }

func (stubInvoiceService) SendReminders(ctx context.Context) (int, error) { return 0, nil }

type stubLedgerService struct{}

func (stubLedgerService) CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.JournalEntry, error) {
	return &domain.JournalEntry{ID: "entry"}, nil
}

func (stubLedgerService) CloseEntry(ctx context.Context, entryID string, items []domain.EntryItem) error {
	return nil
}

func (stubLedgerService) AccountBalance(ctx context.Context, accountNumber int) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (stubLedgerService) CheckConsistency(ctx context.Context) error { return nil }

type stubRefundService struct{}

func (stubRefundService) RequestRefund(ctx context.Context, input usecase.RequestRefundInput) (*domain.InvoiceRefund, error) {
	return &domain.InvoiceRefund{ID: "ref"}, nil
}

func (stubRefundService) Get(ctx context.Context, id string) (*domain.InvoiceRefund, error) {
	return &domain.InvoiceRefund{ID: id}, nil
}

func (stubRefundService) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceRefund, error) {
	return []*domain.InvoiceRefund{}, nil
}

func (stubRefundService) ProcessQueued(ctx context.Context) (int, error) { return 0, nil }

func (stubRefundService) FlagStalled(ctx context.Context) (int, error) { return 0, nil }

type stubBankTxService struct{}

func (stubBankTxService) List(ctx context.Context, limit, offset int) ([]*domain.PendingBankTransaction, error) {
	return []*domain.PendingBankTransaction{}, nil
}

func (stubBankTxService) Get(ctx context.Context, id string) (*domain.PendingBankTransaction, error) {
	return &domain.PendingBankTransaction{ID: id}, nil
}

func (stubBankTxService) Match(ctx context.Context, input usecase.MatchInput) (domain.PaymentResult, error) {
	return domain.PaymentOK, nil
}

func (stubBankTxService) Discard(ctx context.Context, id string) error { return nil }

func (stubBankTxService) SendPendingReminders(ctx context.Context) (int, error) { return 0, nil }

type stubStatementProcessor struct{}

func (stubStatementProcessor) ProcessBankPayment(ctx context.Context, input usecase.BankPaymentInput) (domain.PaymentResult, error) {
	return domain.PaymentOK, nil
}

type stubSettlementProcessor struct{}

func (stubSettlementProcessor) ProcessPaymentForInvoice(ctx context.Context, input usecase.ProcessPaymentInput) (domain.PaymentResult, error) {
	return domain.PaymentOK, nil
}

type stubRefundCompleter struct{}

func (stubRefundCompleter) CompleteRefund(ctx context.Context, input usecase.CompleteRefundInput) error {
	return nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

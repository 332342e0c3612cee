package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/adapter/http/dto"
	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/provider"
	"github.com/eventfin/fincore/internal/usecase"
)

const testWebhookSecret = "whsec_test"

type settlementStub struct {
	fn func(ctx context.Context, input usecase.ProcessPaymentInput) (domain.PaymentResult, error)
}

func (s *settlementStub) ProcessPaymentForInvoice(ctx context.Context, input usecase.ProcessPaymentInput) (domain.PaymentResult, error) {
	return s.fn(ctx, input)
}

type refundCompleterStub struct {
	fn func(ctx context.Context, input usecase.CompleteRefundInput) error
}

func (s *refundCompleterStub) CompleteRefund(ctx context.Context, input usecase.CompleteRefundInput) error {
	return s.fn(ctx, input)
}

type resolverStub map[string]provider.Wrapper

func (r resolverStub) Resolve(name string) (provider.Wrapper, bool) {
	w, ok := r[name]
	return w, ok
}

// memoryIdempotencyStore is an in-process stand-in for the Redis store.
type memoryIdempotencyStore struct {
	values map[string][]byte
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{values: make(map[string][]byte)}
}

func (s *memoryIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if existing, ok := s.values[key]; ok {
		return true, existing, nil
	}
	if response == nil {
		s.values[key] = []byte("processing")
		return false, nil, nil
	}
	s.values[key] = response
	return false, nil, nil
}

func (s *memoryIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.values[key] = response
	return nil
}

func testCardGate(t *testing.T) provider.Wrapper {
	t.Helper()

	p, err := provider.NewCardGate(provider.Config{
		Name: "cardgate",
		Kind: provider.KindCardGate,
		Settings: map[string]string{
			"api_base":       "https://api.cardgate.test",
			"api_key":        "sk_test",
			"webhook_secret": testWebhookSecret,
			"income_account": "1930",
			"fee_account":    "6570",
		},
	})
	if err != nil {
		t.Fatalf("failed to build cardgate: %v", err)
	}

	return provider.Wrapper{Name: "cardgate", Provider: p, OK: true}
}

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookHandler(t *testing.T, payments SettlementProcessor, refunds RefundCompleter, store usecase.IdempotencyStore) *WebhookHandler {
	t.Helper()

	if payments == nil {
		payments = &settlementStub{fn: func(ctx context.Context, input usecase.ProcessPaymentInput) (domain.PaymentResult, error) {
			t.Fatal("settlement processor should not be called")
			return domain.PaymentUnknown, nil
		}}
	}
	if refunds == nil {
		refunds = &refundCompleterStub{fn: func(ctx context.Context, input usecase.CompleteRefundInput) error {
			t.Fatal("refund completer should not be called")
			return nil
		}}
	}
	if store == nil {
		store = newMemoryIdempotencyStore()
	}

	return NewWebhookHandler(
		payments,
		refunds,
		resolverStub{"cardgate": testCardGate(t)},
		store,
		time.Hour,
		zerolog.Nop(),
	)
}

func webhookRequest(body []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/p/cardgate/webhook", bytes.NewReader(body))
	req = withURLParam(req, "provider", "cardgate")
	if signature != "" {
		req.Header.Set(WebhookSignatureHeader, signature)
	}
	return req
}

func TestWebhookHandler_UnknownProvider(t *testing.T) {
	h := newWebhookHandler(t, nil, nil, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/p/nope/webhook", bytes.NewReader(nil)), "provider", "nope")
	rec := httptest.NewRecorder()

	h.Receive(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	h := newWebhookHandler(t, nil, nil, nil)

	body, _ := json.Marshal(dto.WebhookRequest{Event: dto.WebhookEventPaymentSettled, EventID: "evt_1"})
	rec := httptest.NewRecorder()

	h.Receive(rec, webhookRequest(body, "deadbeef"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWebhookHandler_SettlementUsesProviderAccounts(t *testing.T) {
	var captured usecase.ProcessPaymentInput
	payments := &settlementStub{fn: func(ctx context.Context, input usecase.ProcessPaymentInput) (domain.PaymentResult, error) {
		captured = input
		return domain.PaymentOK, nil
	}}
	h := newWebhookHandler(t, payments, nil, nil)

	body, _ := json.Marshal(dto.WebhookRequest{
		Event:     dto.WebhookEventPaymentSettled,
		EventID:   "evt_1",
		InvoiceID: "inv-1",
		Amount:    decimal.RequireFromString("250.00"),
		Fee:       decimal.RequireFromString("3.50"),
		Details:   "cardgate:ch_9f2",
	})
	rec := httptest.NewRecorder()

	h.Receive(rec, webhookRequest(body, sign(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.InvoiceID != "inv-1" || captured.Method != "cardgate" {
		t.Fatalf("unexpected settlement input: %+v", captured)
	}
	if captured.IncomeAccount != 1930 || captured.CostAccount != 6570 {
		t.Fatalf("expected accounts from provider config, got %d/%d", captured.IncomeAccount, captured.CostAccount)
	}

	var resp dto.PaymentResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result != domain.PaymentOK.String() {
		t.Fatalf("expected OK result, got %s", resp.Result)
	}
}

func TestWebhookHandler_MismatchStillAnswers200(t *testing.T) {
	payments := &settlementStub{fn: func(ctx context.Context, input usecase.ProcessPaymentInput) (domain.PaymentResult, error) {
		return domain.PaymentInvalidAmount, nil
	}}
	h := newWebhookHandler(t, payments, nil, nil)

	body, _ := json.Marshal(dto.WebhookRequest{
		Event:     dto.WebhookEventPaymentSettled,
		EventID:   "evt_2",
		InvoiceID: "inv-1",
		Amount:    decimal.RequireFromString("1.00"),
	})
	rec := httptest.NewRecorder()

	h.Receive(rec, webhookRequest(body, sign(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for mismatch, got %d", rec.Code)
	}

	var resp dto.PaymentResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Result != domain.PaymentInvalidAmount.String() {
		t.Fatalf("expected INVALID_AMOUNT, got %s", resp.Result)
	}
}

func TestWebhookHandler_RedeliveryReplaysResponse(t *testing.T) {
	calls := 0
	payments := &settlementStub{fn: func(ctx context.Context, input usecase.ProcessPaymentInput) (domain.PaymentResult, error) {
		calls++
		return domain.PaymentOK, nil
	}}
	store := newMemoryIdempotencyStore()
	h := newWebhookHandler(t, payments, nil, store)

	body, _ := json.Marshal(dto.WebhookRequest{
		Event:     dto.WebhookEventPaymentSettled,
		EventID:   "evt_3",
		InvoiceID: "inv-1",
		Amount:    decimal.RequireFromString("250.00"),
	})
	signature := sign(body)

	first := httptest.NewRecorder()
	h.Receive(first, webhookRequest(body, signature))
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery failed: %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.Receive(second, webhookRequest(body, signature))
	if second.Code != http.StatusOK {
		t.Fatalf("second delivery failed: %d", second.Code)
	}

	if calls != 1 {
		t.Fatalf("expected exactly one processing call, got %d", calls)
	}
	if second.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatalf("expected replay marker on redelivery")
	}
}

func TestWebhookHandler_RefundCompletion(t *testing.T) {
	var captured usecase.CompleteRefundInput
	refunds := &refundCompleterStub{fn: func(ctx context.Context, input usecase.CompleteRefundInput) error {
		captured = input
		return nil
	}}
	h := newWebhookHandler(t, nil, refunds, nil)

	body, _ := json.Marshal(dto.WebhookRequest{
		Event:    dto.WebhookEventRefundCompleted,
		EventID:  "evt_4",
		RefundID: "ref-1",
		Fee:      decimal.RequireFromString("2.00"),
	})
	rec := httptest.NewRecorder()

	h.Receive(rec, webhookRequest(body, sign(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.RefundID != "ref-1" || captured.IncomeAccount != 1930 || captured.FeeAccount != 6570 {
		t.Fatalf("unexpected completion input: %+v", captured)
	}
}

func TestWebhookHandler_MissingEventID(t *testing.T) {
	h := newWebhookHandler(t, nil, nil, nil)

	body, _ := json.Marshal(dto.WebhookRequest{Event: dto.WebhookEventPaymentSettled})
	rec := httptest.NewRecorder()

	h.Receive(rec, webhookRequest(body, sign(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventfin/fincore/internal/domain"
)

func TestDiffWorkdays(t *testing.T) {
	// Monday 2026-03-02.
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", monday, monday.Add(4 * time.Hour), 0},
		{"next day", monday, monday.AddDate(0, 0, 1), 1},
		{"across weekend", monday.AddDate(0, 0, 4), monday.AddDate(0, 0, 7), 1},
		{"full week", monday, monday.AddDate(0, 0, 7), 5},
		{"to before from", monday, monday.AddDate(0, 0, -1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiffWorkdays(tt.from, tt.to))
		})
	}
}

func TestBankTransferAvailability(t *testing.T) {
	p, err := NewBankTransfer(Config{
		Name: "banktransfer",
		Kind: KindBankTransfer,
		Settings: map[string]string{
			"income_account": "1930",
			"fee_account":    "6570",
			"site_base":      "https://events.example.org",
		},
	})
	require.NoError(t, err)

	bt, ok := p.(AvailabilityChecker)
	require.True(t, ok, "bank transfer must report availability")

	ctx := context.Background()

	noDeadline := &domain.Invoice{ID: "inv-1"}
	assert.True(t, bt.Available(ctx, noDeadline))
	assert.Empty(t, bt.UnavailableReason(ctx, noDeadline))

	soon := time.Now().Add(24 * time.Hour)
	closing := &domain.Invoice{ID: "inv-2", CancelTime: &soon}
	assert.False(t, bt.Available(ctx, closing))
	assert.NotEmpty(t, bt.UnavailableReason(ctx, closing))

	far := time.Now().AddDate(0, 0, 14)
	open := &domain.Invoice{ID: "inv-3", CancelTime: &far}
	assert.True(t, bt.Available(ctx, open))
}

func TestBankTransferIsManualRefundOnly(t *testing.T) {
	p, err := NewBankTransfer(Config{
		Name: "banktransfer",
		Kind: KindBankTransfer,
		Settings: map[string]string{
			"income_account": "1930",
			"fee_account":    "6570",
		},
	})
	require.NoError(t, err)

	assert.False(t, CanAutoRefund(p))

	acc, ok := p.(Accounted)
	require.True(t, ok)
	assert.Equal(t, 1930, acc.IncomeAccount())
	assert.Equal(t, 6570, acc.FeeAccount())
}

func TestCardGateWebhookSignature(t *testing.T) {
	p, err := NewCardGate(Config{
		Name: "cardgate",
		Kind: KindCardGate,
		Settings: map[string]string{
			"api_base":       "https://api.cardgate.test",
			"api_key":        "sk_test",
			"webhook_secret": "whsec_test",
			"income_account": "1930",
			"fee_account":    "6570",
		},
	})
	require.NoError(t, err)

	validator, ok := p.(WebhookValidator)
	require.True(t, ok, "cardgate must validate webhooks")

	payload := []byte(`{"event":"payment.settled"}`)
	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(payload)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.NoError(t, validator.ValidateWebhookSignature(payload, valid))
	assert.Error(t, validator.ValidateWebhookSignature(payload, "deadbeef"))
	assert.Error(t, validator.ValidateWebhookSignature([]byte("tampered"), valid))
}

func TestCardGateSupportsAutoRefund(t *testing.T) {
	p, err := NewCardGate(Config{
		Name: "cardgate",
		Kind: KindCardGate,
		Settings: map[string]string{
			"api_base":       "https://api.cardgate.test",
			"api_key":        "sk_test",
			"webhook_secret": "whsec_test",
			"income_account": "1930",
			"fee_account":    "6570",
		},
	})
	require.NoError(t, err)

	assert.True(t, CanAutoRefund(p))
}

func TestDummyAutoRefund(t *testing.T) {
	p, err := NewDummy(Config{Name: "dummy", Kind: KindDummy})
	require.NoError(t, err)

	d := p.(*Dummy)
	inv := &domain.Invoice{ID: "inv-1"}
	refund := &domain.InvoiceRefund{ID: "ref-1"}

	ref, err := d.AutoRefund(context.Background(), inv, refund)
	require.NoError(t, err)
	assert.Contains(t, ref, "inv-1")
	assert.Len(t, d.Refunds, 1)

	d.FailRefunds = true
	_, err = d.AutoRefund(context.Background(), inv, refund)
	assert.Error(t, err)
	assert.Len(t, d.Refunds, 1)
}

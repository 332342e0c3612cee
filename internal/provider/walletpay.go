package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
)

// WalletPay is a wallet processor: redirect initiation, API refunds and
// signed webhooks, but no fee reporting until the monthly settlement
// report arrives out of band.
type WalletPay struct {
	name          string
	apiBase       string
	apiKey        string
	webhookSecret string
	incomeAccount int
	feeAccount    int
	client        *http.Client
}

// NewWalletPay builds the wallet method from configuration.
func NewWalletPay(cfg Config) (Provider, error) {
	if cfg.Settings["api_base"] == "" || cfg.Settings["api_key"] == "" {
		return nil, fmt.Errorf("walletpay %s: missing api configuration", cfg.Name)
	}
	income, err := strconv.Atoi(cfg.Settings["income_account"])
	if err != nil {
		return nil, fmt.Errorf("walletpay %s: income_account: %w", cfg.Name, err)
	}
	fee, err := strconv.Atoi(cfg.Settings["fee_account"])
	if err != nil {
		return nil, fmt.Errorf("walletpay %s: fee_account: %w", cfg.Name, err)
	}
	return &WalletPay{
		name:          cfg.Name,
		apiBase:       strings.TrimRight(cfg.Settings["api_base"], "/"),
		apiKey:        cfg.Settings["api_key"],
		webhookSecret: cfg.Settings["webhook_secret"],
		incomeAccount: income,
		feeAccount:    fee,
		client:        &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (w *WalletPay) Name() string { return w.name }

// BuildPaymentInitiation creates a wallet order and returns the approval
// redirect.
func (w *WalletPay) BuildPaymentInitiation(ctx context.Context, inv *domain.Invoice) (string, error) {
	var order struct {
		RedirectURL string `json:"redirect_url"`
	}
	if err := w.post(ctx, "/orders", map[string]any{
		"reference": inv.ID,
		"amount":    inv.TotalAmount.String(),
	}, &order); err != nil {
		return "", err
	}
	return order.RedirectURL, nil
}

// AutoRefund issues a wallet refund for the full refund amount.
func (w *WalletPay) AutoRefund(ctx context.Context, inv *domain.Invoice, refund *domain.InvoiceRefund) (string, error) {
	var r struct {
		ID string `json:"id"`
	}
	if err := w.post(ctx, "/refunds", map[string]any{
		"reference": inv.ID,
		"amount":    refund.FullAmount().String(),
	}, &r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s refund %s", w.name, r.ID), nil
}

// PaymentFees always reports not-settled: wallet fees only show up on the
// monthly settlement report.
func (w *WalletPay) PaymentFees(_ context.Context, _ *domain.Invoice) (decimal.Decimal, error) {
	return decimal.Zero, ErrNotSettled
}

// ValidateWebhookSignature checks the hex HMAC-SHA256 of the payload.
func (w *WalletPay) ValidateWebhookSignature(payload []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(w.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return errors.New("webhook signature mismatch")
	}
	return nil
}

func (w *WalletPay) IncomeAccount() int { return w.incomeAccount }
func (w *WalletPay) FeeAccount() int    { return w.feeAccount }

func (w *WalletPay) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiBase+path, strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("walletpay %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

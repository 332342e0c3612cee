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

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
)

// CardGate is a card processor with the full capability set: hosted
// checkout initiation, API-issued refunds, settled fee reporting, used
// method details and HMAC-signed webhooks.
type CardGate struct {
	name          string
	apiBase       string
	apiKey        string
	webhookSecret string
	incomeAccount int
	feeAccount    int
	client        *http.Client
}

// NewCardGate builds the card processor from configuration.
func NewCardGate(cfg Config) (Provider, error) {
	for _, key := range []string{"api_base", "api_key", "webhook_secret"} {
		if cfg.Settings[key] == "" {
			return nil, fmt.Errorf("cardgate %s: missing %s", cfg.Name, key)
		}
	}
	income, err := strconv.Atoi(cfg.Settings["income_account"])
	if err != nil {
		return nil, fmt.Errorf("cardgate %s: income_account: %w", cfg.Name, err)
	}
	fee, err := strconv.Atoi(cfg.Settings["fee_account"])
	if err != nil {
		return nil, fmt.Errorf("cardgate %s: fee_account: %w", cfg.Name, err)
	}
	return &CardGate{
		name:          cfg.Name,
		apiBase:       strings.TrimRight(cfg.Settings["api_base"], "/"),
		apiKey:        cfg.Settings["api_key"],
		webhookSecret: cfg.Settings["webhook_secret"],
		incomeAccount: income,
		feeAccount:    fee,
		client:        &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (c *CardGate) Name() string { return c.name }

type cardGateSession struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

type cardGateCharge struct {
	ID            string `json:"id"`
	Fee           string `json:"fee"`
	Settled       bool   `json:"settled"`
	PaymentMethod string `json:"payment_method"`
}

type cardGateRefund struct {
	ID string `json:"id"`
}

// BuildPaymentInitiation creates a hosted checkout session and returns its
// redirect URL.
func (c *CardGate) BuildPaymentInitiation(ctx context.Context, inv *domain.Invoice) (string, error) {
	body := map[string]any{
		"reference": inv.ID,
		"amount":    inv.TotalAmount.String(),
		"title":     inv.Title,
	}
	var session cardGateSession
	if err := c.call(ctx, http.MethodPost, "/v1/checkout/sessions", body, &session); err != nil {
		return "", err
	}
	return session.CheckoutURL, nil
}

// AutoRefund issues an API refund for the charge behind the invoice and
// returns the processor's refund reference.
func (c *CardGate) AutoRefund(ctx context.Context, inv *domain.Invoice, refund *domain.InvoiceRefund) (string, error) {
	body := map[string]any{
		"reference": inv.ID,
		"amount":    refund.FullAmount().String(),
		"reason":    refund.Reason,
	}
	var r cardGateRefund
	if err := c.call(ctx, http.MethodPost, "/v1/refunds", body, &r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s refund %s", c.name, r.ID), nil
}

// PaymentFees returns the settled fee for the invoice's charge, or
// ErrNotSettled while the processor is still batching.
func (c *CardGate) PaymentFees(ctx context.Context, inv *domain.Invoice) (decimal.Decimal, error) {
	charge, err := c.charge(ctx, inv)
	if err != nil {
		return decimal.Zero, err
	}
	if !charge.Settled {
		return decimal.Zero, ErrNotSettled
	}
	fee, err := decimal.NewFromString(charge.Fee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cardgate fee %q: %w", charge.Fee, err)
	}
	return fee, nil
}

// UsedMethodDetails describes the card used for the charge.
func (c *CardGate) UsedMethodDetails(ctx context.Context, inv *domain.Invoice) (string, error) {
	charge, err := c.charge(ctx, inv)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Credit Card (%s)", charge.PaymentMethod), nil
}

// ValidateWebhookSignature checks the hex HMAC-SHA256 of the payload.
func (c *CardGate) ValidateWebhookSignature(payload []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return errors.New("webhook signature mismatch")
	}
	return nil
}

func (c *CardGate) IncomeAccount() int { return c.incomeAccount }
func (c *CardGate) FeeAccount() int    { return c.feeAccount }

func (c *CardGate) charge(ctx context.Context, inv *domain.Invoice) (*cardGateCharge, error) {
	var charge cardGateCharge
	path := "/v1/charges?reference=" + inv.ID
	if err := c.call(ctx, http.MethodGet, path, nil, &charge); err != nil {
		return nil, err
	}
	if charge.ID == "" {
		return nil, ErrFeeUnknown
	}
	return &charge, nil
}

// call performs one API request with bounded retries on transient failures.
func (c *CardGate) call(ctx context.Context, method, path string, body, out any) error {
	operation := func() error {
		var reader *strings.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return backoff.Permanent(err)
			}
			reader = strings.NewReader(string(data))
		} else {
			reader = strings.NewReader("")
		}

		req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("cardgate %s %s: status %d", method, path, resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("cardgate %s %s: status %d", method, path, resp.StatusCode))
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 15 * time.Second
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/eventfin/fincore/internal/domain"
)

// BankTransfer is the managed IBAN transfer method. Settlement arrives as
// bank statement rows reconciled by text matching, so refunds are always
// manual bank actions and the method hides itself when the invoice would
// auto-cancel before a transfer could settle.
type BankTransfer struct {
	name          string
	siteBase      string
	incomeAccount int
	feeAccount    int

	// unavailableLessThanDays hides the method when fewer working days
	// than this remain before the invoice auto-cancels.
	unavailableLessThanDays int
}

// NewBankTransfer builds the bank transfer method from configuration.
func NewBankTransfer(cfg Config) (Provider, error) {
	income, err := strconv.Atoi(cfg.Settings["income_account"])
	if err != nil {
		return nil, fmt.Errorf("banktransfer %s: income_account: %w", cfg.Name, err)
	}
	fee, err := strconv.Atoi(cfg.Settings["fee_account"])
	if err != nil {
		return nil, fmt.Errorf("banktransfer %s: fee_account: %w", cfg.Name, err)
	}
	days := 4
	if v, ok := cfg.Settings["unavailable_less_than_days"]; ok {
		if days, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("banktransfer %s: unavailable_less_than_days: %w", cfg.Name, err)
		}
	}
	return &BankTransfer{
		name:                    cfg.Name,
		siteBase:                cfg.Settings["site_base"],
		incomeAccount:           income,
		feeAccount:              fee,
		unavailableLessThanDays: days,
	}, nil
}

func (b *BankTransfer) Name() string { return b.name }

// BuildPaymentInitiation points the payer at the transfer instructions
// page, keyed by the invoice's recipient secret.
func (b *BankTransfer) BuildPaymentInitiation(_ context.Context, inv *domain.Invoice) (string, error) {
	q := url.Values{}
	q.Set("invoice", inv.ID)
	q.Set("key", inv.RecipientSecret)
	return fmt.Sprintf("%s/invoices/banktransfer/?%s", b.siteBase, q.Encode()), nil
}

// Available hides the method when the invoice auto-cancels too soon for a
// transfer to settle.
func (b *BankTransfer) Available(_ context.Context, inv *domain.Invoice) bool {
	if inv.CancelTime == nil {
		return true
	}
	return DiffWorkdays(time.Now(), *inv.CancelTime) >= b.unavailableLessThanDays
}

func (b *BankTransfer) UnavailableReason(ctx context.Context, inv *domain.Invoice) string {
	if b.Available(ctx, inv) {
		return ""
	}
	return fmt.Sprintf("this invoice will be automatically canceled in less than %d working days, which requires a faster payment method", b.unavailableLessThanDays)
}

func (b *BankTransfer) IncomeAccount() int { return b.incomeAccount }
func (b *BankTransfer) FeeAccount() int    { return b.feeAccount }

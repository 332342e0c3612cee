package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
	"github.com/eventfin/fincore/internal/usecase/mocks"
)

type banktxFixture struct {
	*paymentFixture
	uc *usecase.BankTransactionUseCase
}

func newBanktxFixture(t *testing.T) *banktxFixture {
	t.Helper()
	pf := newPaymentFixture(t)

	return &banktxFixture{
		paymentFixture: pf,
		uc: usecase.NewBankTransactionUseCase(
			mocks.NewMockTransactionManager(),
			pf.bankTxs,
			pf.payments,
			pf.mailQueue,
			mocks.NewMockIDGenerator(),
			zerolog.Nop(),
			"finance@example.org",
		),
	}
}

func (f *banktxFixture) parkedRow(t *testing.T, amount string) *domain.PendingBankTransaction {
	t.Helper()
	bt := &domain.PendingBankTransaction{
		ID:        "bt-1",
		Method:    "banktransfer",
		Amount:    decimal.RequireFromString(amount),
		TransText: "PAYMENT RECEIVED, GREETINGS",
		Sender:    "JANE ATTENDEE",
		CanReturn: true,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.bankTxs.Create(context.Background(), nil, bt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return bt
}

func TestBankTransactionUseCase_Match(t *testing.T) {
	f := newBanktxFixture(t)
	ctx := context.Background()
	inv := f.finalizedInvoice(t, 0)
	bt := f.parkedRow(t, "250.00")

	f.renderer.EXPECT().RenderReceipt(gomock.Any(), gomock.Any()).Return([]byte("receipt"), nil)

	result, err := f.uc.Match(ctx, usecase.MatchInput{
		TransactionID: bt.ID,
		InvoiceID:     inv.ID,
		IncomeAccount: 1930,
		CostAccount:   6570,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != domain.PaymentOK {
		t.Fatalf("result = %v, want PaymentOK", result)
	}

	stored, _ := f.invoices.GetByID(ctx, inv.ID)
	if !stored.IsPaid() {
		t.Fatal("invoice should be paid")
	}
	if _, err := f.bankTxs.GetByID(ctx, bt.ID); !errors.Is(err, domain.ErrBankTransactionNotFound) {
		t.Fatal("matched row should be removed from the holding pen")
	}
}

func TestBankTransactionUseCase_MatchKeepsRowOnMismatch(t *testing.T) {
	f := newBanktxFixture(t)
	ctx := context.Background()
	inv := f.finalizedInvoice(t, 0)
	bt := f.parkedRow(t, "100.00") // invoice total is 250.00

	result, err := f.uc.Match(ctx, usecase.MatchInput{
		TransactionID: bt.ID,
		InvoiceID:     inv.ID,
		IncomeAccount: 1930,
		CostAccount:   6570,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != domain.PaymentInvalidAmount {
		t.Fatalf("result = %v, want PaymentInvalidAmount", result)
	}
	if _, err := f.bankTxs.GetByID(ctx, bt.ID); err != nil {
		t.Fatal("mismatched row must stay in the holding pen")
	}
}

func TestBankTransactionUseCase_Discard(t *testing.T) {
	f := newBanktxFixture(t)
	ctx := context.Background()
	bt := f.parkedRow(t, "42.00")

	if err := f.uc.Discard(ctx, bt.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.bankTxs.GetByID(ctx, bt.ID); !errors.Is(err, domain.ErrBankTransactionNotFound) {
		t.Fatal("discarded row should be gone")
	}

	if err := f.uc.Discard(ctx, bt.ID); !errors.Is(err, domain.ErrBankTransactionNotFound) {
		t.Fatalf("expected ErrBankTransactionNotFound, got %v", err)
	}
}

func TestBankTransactionUseCase_SendPendingReminders(t *testing.T) {
	f := newBanktxFixture(t)
	ctx := context.Background()

	old := f.parkedRow(t, "42.00")
	old.CreatedAt = time.Now().UTC().Add(-96 * time.Hour)

	fresh := &domain.PendingBankTransaction{
		ID: "bt-2", Method: "banktransfer",
		Amount:    decimal.RequireFromString("10.00"),
		TransText: "X", CreatedAt: time.Now().UTC(),
	}
	_ = f.bankTxs.Create(ctx, nil, fresh)

	n, err := f.uc.SendPendingReminders(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stale transaction, got %d", n)
	}

	mails := f.mailQueue.Mails()
	if len(mails) != 1 || mails[0].Template != domain.MailTemplatePendingBankTx {
		t.Fatalf("expected one pending-transactions alert, got %v", mails)
	}
}

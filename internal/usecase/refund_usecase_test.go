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
	"github.com/eventfin/fincore/internal/provider"
	"github.com/eventfin/fincore/internal/usecase"
	"github.com/eventfin/fincore/internal/usecase/mocks"
)

type staticResolver map[string]provider.Wrapper

func (r staticResolver) Resolve(name string) (provider.Wrapper, bool) {
	w, ok := r[name]
	return w, ok
}

type refundFixture struct {
	uc         *usecase.RefundUseCase
	invoices   *mocks.MockInvoiceRepository
	refunds    *mocks.MockRefundRepository
	history    *mocks.MockHistoryRepository
	mailQueue  *mocks.MockMailQueue
	journal    *mocks.MockJournalRepository
	dispatcher *mocks.MockProcessorDispatcher
	dummy      *provider.Dummy
}

func newRefundFixture(t *testing.T) *refundFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &refundFixture{
		invoices:   mocks.NewMockInvoiceRepository(),
		refunds:    mocks.NewMockRefundRepository(),
		history:    mocks.NewMockHistoryRepository(),
		mailQueue:  mocks.NewMockMailQueue(),
		journal:    mocks.NewMockJournalRepository(),
		dispatcher: mocks.NewMockProcessorDispatcher(ctrl),
	}

	txManager := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	accounts := mocks.NewMockAccountRepository()
	ctx := context.Background()
	_ = accounts.Create(ctx, &domain.Account{Number: 1930, Name: "Bank"})
	_ = accounts.Create(ctx, &domain.Account{Number: 6570, Name: "Bank fees"})
	_ = accounts.Create(ctx, &domain.Account{Number: 3000, Name: "Income"})
	years := mocks.NewMockFiscalYearRepository()
	years.AddYear(time.Now().UTC().Year(), true)

	ledger := usecase.NewLedgerUseCase(
		txManager, accounts, mocks.NewMockObjectRepository(), years, f.journal,
		f.mailQueue, idGen, nil, "finance@example.org",
	)

	p, err := provider.NewDummy(provider.Config{Name: "dummy", Kind: provider.KindDummy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.dummy = p.(*provider.Dummy)

	bank, err := provider.NewBankTransfer(provider.Config{
		Name:     "banktransfer",
		Kind:     provider.KindBankTransfer,
		Settings: map[string]string{"income_account": "1930", "fee_account": "6570"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolver := staticResolver{
		"dummy":        {Name: "dummy", Provider: p, OK: true},
		"banktransfer": {Name: "banktransfer", Provider: bank, OK: true},
	}

	f.uc = usecase.NewRefundUseCase(
		txManager, f.invoices, f.refunds, f.history, f.mailQueue, ledger,
		f.dispatcher, resolver, idGen, nil, zerolog.Nop(),
		"finance@example.org", "https://events.example.org",
	)
	return f
}

// paidInvoice seeds a finalized, paid invoice directly in the repository.
func (f *refundFixture) paidInvoice(t *testing.T, method string, accountingAccount int) *domain.Invoice {
	t.Helper()
	now := time.Now().UTC()
	inv := &domain.Invoice{
		ID:                "inv-1",
		Title:             "Conference registration",
		RecipientEmail:    "jane@example.org",
		TotalAmount:       decimal.RequireFromString("250.00"),
		TotalVAT:          decimal.RequireFromString("50.00"),
		Finalized:         true,
		PaidAt:            &now,
		PaidUsing:         method,
		AccountingAccount: accountingAccount,
	}
	if err := f.invoices.Create(context.Background(), nil, inv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return inv
}

func TestRefundUseCase_RequestRefund(t *testing.T) {
	tests := []struct {
		name        string
		paid        bool
		amount      string
		vat         string
		expectedErr error
	}{
		{name: "full refund", paid: true, amount: "200.00", vat: "50.00"},
		{name: "partial refund", paid: true, amount: "100.00", vat: "0"},
		{name: "unpaid invoice", paid: false, amount: "100.00", vat: "0", expectedErr: domain.ErrInvoiceNotPaid},
		{name: "amount above net total", paid: true, amount: "200.01", vat: "0", expectedErr: domain.ErrInvalidRefundAmount},
		{name: "amount below one", paid: true, amount: "0.50", vat: "0", expectedErr: domain.ErrInvalidRefundAmount},
		{name: "vat above invoice vat", paid: true, amount: "100.00", vat: "50.01", expectedErr: domain.ErrInvalidRefundAmount},
		{name: "sub-cent amount", paid: true, amount: "100.005", vat: "0", expectedErr: domain.ErrUnroundedAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRefundFixture(t)
			inv := f.paidInvoice(t, "dummy", 0)
			if !tt.paid {
				inv.PaidAt = nil
			}

			refund, err := f.uc.RequestRefund(context.Background(), usecase.RequestRefundInput{
				InvoiceID: inv.ID,
				Reason:    "Event canceled",
				Amount:    decimal.RequireFromString(tt.amount),
				VATAmount: decimal.RequireFromString(tt.vat),
			})
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if refund.Registered.IsZero() {
				t.Fatal("registered timestamp should be set")
			}
			if refund.Issued != nil || refund.Completed != nil {
				t.Fatal("new refund must be neither issued nor completed")
			}
		})
	}
}

func TestRefundUseCase_ProcessQueued(t *testing.T) {
	f := newRefundFixture(t)
	ctx := context.Background()
	inv := f.paidInvoice(t, "dummy", 0)

	refund, err := f.uc.RequestRefund(ctx, usecase.RequestRefundInput{
		InvoiceID: inv.ID,
		Reason:    "Event canceled",
		Amount:    decimal.RequireFromString("200.00"),
		VATAmount: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issued, err := f.uc.ProcessQueued(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issued != 1 {
		t.Fatalf("expected 1 issued refund, got %d", issued)
	}

	stored, _ := f.refunds.GetByID(ctx, refund.ID)
	if stored.Issued == nil {
		t.Fatal("refund should be stamped issued")
	}
	if stored.PaymentReference == "" {
		t.Fatal("provider reference should be recorded")
	}
	if len(f.dummy.Refunds) != 1 {
		t.Fatalf("expected 1 provider refund call, got %d", len(f.dummy.Refunds))
	}

	// Another run finds nothing to do.
	issued, err = f.uc.ProcessQueued(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issued != 0 {
		t.Fatalf("expected 0 issued refunds on re-run, got %d", issued)
	}
	if len(f.dummy.Refunds) != 1 {
		t.Fatal("provider must not be called again")
	}
}

func TestRefundUseCase_ProcessQueuedProviderNotRefundable(t *testing.T) {
	f := newRefundFixture(t)
	ctx := context.Background()
	inv := f.paidInvoice(t, "banktransfer", 0)

	refund, err := f.uc.RequestRefund(ctx, usecase.RequestRefundInput{
		InvoiceID: inv.ID,
		Reason:    "Event canceled",
		Amount:    decimal.RequireFromString("100.00"),
		VATAmount: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issued, err := f.uc.ProcessQueued(ctx)
	if !errors.Is(err, domain.ErrProviderNotRefundable) {
		t.Fatalf("expected ErrProviderNotRefundable, got %v", err)
	}
	if issued != 0 {
		t.Fatalf("expected 0 issued refunds, got %d", issued)
	}

	stored, _ := f.refunds.GetByID(ctx, refund.ID)
	if stored.Issued != nil {
		t.Fatal("refund must stay queued")
	}

	var alerts int
	for _, m := range f.mailQueue.Mails() {
		if m.Template == domain.MailTemplateRefundFailure {
			alerts++
		}
	}
	if alerts != 1 {
		t.Fatalf("expected 1 operator alert, got %d", alerts)
	}
}

func TestRefundUseCase_ProcessQueuedAPIFailureLeavesQueued(t *testing.T) {
	f := newRefundFixture(t)
	ctx := context.Background()
	inv := f.paidInvoice(t, "dummy", 0)

	refund, err := f.uc.RequestRefund(ctx, usecase.RequestRefundInput{
		InvoiceID: inv.ID,
		Reason:    "Event canceled",
		Amount:    decimal.RequireFromString("100.00"),
		VATAmount: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.dummy.FailRefunds = true
	issued, err := f.uc.ProcessQueued(ctx)
	if err != nil {
		t.Fatalf("a flaky provider API is not an orchestrator error: %v", err)
	}
	if issued != 0 {
		t.Fatalf("expected 0 issued refunds, got %d", issued)
	}

	stored, _ := f.refunds.GetByID(ctx, refund.ID)
	if stored.Issued != nil {
		t.Fatal("refund must stay queued for the next run")
	}

	f.dummy.FailRefunds = false
	if issued, _ = f.uc.ProcessQueued(ctx); issued != 1 {
		t.Fatalf("expected the retry to issue the refund, got %d", issued)
	}
}

func TestRefundUseCase_FlagStalled(t *testing.T) {
	f := newRefundFixture(t)
	ctx := context.Background()
	f.paidInvoice(t, "dummy", 0)

	fourDaysAgo := time.Now().UTC().Add(-4 * 24 * time.Hour)
	oneHourAgo := time.Now().UTC().Add(-time.Hour)
	_ = f.refunds.Create(ctx, nil, &domain.InvoiceRefund{
		ID: "r-stalled", InvoiceID: "inv-1",
		Amount: decimal.RequireFromString("100.00"), Issued: &fourDaysAgo,
	})
	_ = f.refunds.Create(ctx, nil, &domain.InvoiceRefund{
		ID: "r-fresh", InvoiceID: "inv-1",
		Amount: decimal.RequireFromString("50.00"), Issued: &oneHourAgo,
	})
	completed := time.Now().UTC()
	_ = f.refunds.Create(ctx, nil, &domain.InvoiceRefund{
		ID: "r-done", InvoiceID: "inv-1",
		Amount: decimal.RequireFromString("25.00"), Issued: &fourDaysAgo, Completed: &completed,
	})

	n, err := f.uc.FlagStalled(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stalled refund, got %d", n)
	}

	mails := f.mailQueue.Mails()
	if len(mails) != 1 || mails[0].Template != domain.MailTemplateStalledRefunds {
		t.Fatalf("expected one stalled-refunds alert, got %v", mails)
	}
}

func TestRefundUseCase_CompleteRefund(t *testing.T) {
	f := newRefundFixture(t)
	ctx := context.Background()
	inv := f.paidInvoice(t, "dummy", 3000)

	refund, err := f.uc.RequestRefund(ctx, usecase.RequestRefundInput{
		InvoiceID: inv.ID,
		Reason:    "Event canceled",
		Amount:    decimal.RequireFromString("200.00"),
		VATAmount: decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.uc.ProcessQueued(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := usecase.CompleteRefundInput{
		RefundID:      refund.ID,
		Fee:           decimal.RequireFromString("2.00"),
		IncomeAccount: 1930,
		FeeAccount:    6570,
		Method:        "dummy",
	}
	if err := f.uc.CompleteRefund(ctx, input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.refunds.GetByID(ctx, refund.ID)
	if stored.Completed == nil {
		t.Fatal("refund should be completed")
	}

	entries := f.journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 reversing entry, got %d", len(entries))
	}
	if !entries[0].Closed {
		t.Fatal("entry should close when accounting coordinates are known")
	}
	byAccount := map[int]decimal.Decimal{}
	sum := decimal.Zero
	for _, it := range f.journal.ItemsFor(entries[0].ID) {
		byAccount[it.AccountNumber] = it.Amount
		sum = sum.Add(it.Amount)
	}
	if !sum.IsZero() {
		t.Fatalf("reversing entry must balance, sum = %s", sum)
	}
	if !byAccount[1930].Equal(decimal.RequireFromString("-250.00")) {
		t.Fatalf("income reversal = %s, want -250.00", byAccount[1930])
	}
	if !byAccount[6570].Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("fee posting = %s, want 2.00", byAccount[6570])
	}
	if !byAccount[3000].Equal(decimal.RequireFromString("248.00")) {
		t.Fatalf("closing posting = %s, want 248.00", byAccount[3000])
	}

	// Redelivered confirmation is a no-op.
	if err := f.uc.CompleteRefund(ctx, input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(f.journal.Entries()); n != 1 {
		t.Fatalf("duplicate confirmation must not post again, found %d entries", n)
	}
}

func TestRefundUseCase_CompleteStampsIssuedForManualRefunds(t *testing.T) {
	f := newRefundFixture(t)
	ctx := context.Background()
	inv := f.paidInvoice(t, "banktransfer", 0)

	refund, err := f.uc.RequestRefund(ctx, usecase.RequestRefundInput{
		InvoiceID: inv.ID,
		Reason:    "Overpayment",
		Amount:    decimal.RequireFromString("100.00"),
		VATAmount: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = f.uc.CompleteRefund(ctx, usecase.CompleteRefundInput{
		RefundID:      refund.ID,
		IncomeAccount: 1930,
		FeeAccount:    6570,
		Method:        "manual bank transfer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.refunds.GetByID(ctx, refund.ID)
	if stored.Issued == nil || stored.Completed == nil {
		t.Fatal("manual completion must stamp both issued and completed")
	}

	entries := f.journal.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 reversing entry, got %d", len(entries))
	}
	if entries[0].Closed {
		t.Fatal("entry should stay open without accounting coordinates")
	}
}

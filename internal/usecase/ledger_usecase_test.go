package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
	"github.com/eventfin/fincore/internal/usecase/mocks"
)

type ledgerFixture struct {
	uc        *usecase.LedgerUseCase
	accounts  *mocks.MockAccountRepository
	objects   *mocks.MockObjectRepository
	years     *mocks.MockFiscalYearRepository
	journal   *mocks.MockJournalRepository
	mailQueue *mocks.MockMailQueue
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		accounts:  mocks.NewMockAccountRepository(),
		objects:   mocks.NewMockObjectRepository(),
		years:     mocks.NewMockFiscalYearRepository(),
		journal:   mocks.NewMockJournalRepository(),
		mailQueue: mocks.NewMockMailQueue(),
	}
	f.uc = usecase.NewLedgerUseCase(
		mocks.NewMockTransactionManager(),
		f.accounts,
		f.objects,
		f.years,
		f.journal,
		f.mailQueue,
		mocks.NewMockIDGenerator(),
		nil,
		"finance@example.org",
	)

	ctx := context.Background()
	_ = f.accounts.Create(ctx, &domain.Account{Number: 1930, Name: "Bank"})
	_ = f.accounts.Create(ctx, &domain.Account{Number: 3000, Name: "Income", AvailableForInvoicing: true})
	_ = f.accounts.Create(ctx, &domain.Account{Number: 6570, Name: "Bank fees"})
	_ = f.objects.Create(ctx, &domain.Object{Name: "conf2026", Active: true})
	_ = f.objects.Create(ctx, &domain.Object{Name: "conf2019", Active: false})
	f.years.AddYear(2026, true)
	f.years.AddYear(2024, false)

	return f
}

func items(pairs ...any) []domain.EntryItem {
	var out []domain.EntryItem
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, domain.EntryItem{
			AccountNumber: pairs[i].(int),
			Description:   "test item",
			Amount:        decimal.RequireFromString(pairs[i+1].(string)),
		})
	}
	return out
}

func TestLedgerUseCase_CreateEntry(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		input       usecase.CreateEntryInput
		expectedErr error
	}{
		{
			name: "balanced entry",
			input: usecase.CreateEntryInput{
				Date:  date,
				Items: items(1930, "100.00", 3000, "-100.00"),
			},
		},
		{
			name: "unbalanced entry rejected",
			input: usecase.CreateEntryInput{
				Date:  date,
				Items: items(1930, "100.00", 3000, "-99.00"),
			},
			expectedErr: domain.ErrUnbalancedEntry,
		},
		{
			name: "unbalanced entry allowed when left open",
			input: usecase.CreateEntryInput{
				Date:      date,
				Items:     items(1930, "100.00"),
				LeaveOpen: true,
			},
		},
		{
			name: "sub-cent amount rejected",
			input: usecase.CreateEntryInput{
				Date:  date,
				Items: items(1930, "1.005", 3000, "-1.005"),
			},
			expectedErr: domain.ErrUnroundedAmount,
		},
		{
			name: "zero amount item rejected",
			input: usecase.CreateEntryInput{
				Date:  date,
				Items: items(1930, "0", 3000, "0"),
			},
			expectedErr: domain.ErrZeroAmountItem,
		},
		{
			name:        "empty item list rejected",
			input:       usecase.CreateEntryInput{Date: date},
			expectedErr: domain.ErrEmptyEntry,
		},
		{
			name: "unknown account rejected",
			input: usecase.CreateEntryInput{
				Date:  date,
				Items: items(9999, "100.00", 3000, "-100.00"),
			},
			expectedErr: domain.ErrAccountNotFound,
		},
		{
			name: "closed year rejected",
			input: usecase.CreateEntryInput{
				Date:  time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
				Items: items(1930, "100.00", 3000, "-100.00"),
			},
			expectedErr: domain.ErrYearClosed,
		},
		{
			name: "inactive object rejected",
			input: usecase.CreateEntryInput{
				Date: date,
				Items: []domain.EntryItem{
					{AccountNumber: 1930, Description: "x", Amount: decimal.RequireFromString("100.00")},
					{AccountNumber: 3000, Description: "x", Amount: decimal.RequireFromString("-100.00"), ObjectName: "conf2019"},
				},
			},
			expectedErr: domain.ErrObjectInactive,
		},
		{
			name: "unknown object rejected",
			input: usecase.CreateEntryInput{
				Date: date,
				Items: []domain.EntryItem{
					{AccountNumber: 1930, Description: "x", Amount: decimal.RequireFromString("100.00")},
					{AccountNumber: 3000, Description: "x", Amount: decimal.RequireFromString("-100.00"), ObjectName: "nope"},
				},
			},
			expectedErr: domain.ErrObjectNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			entry, err := f.uc.CreateEntry(context.Background(), tt.input)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.Closed == tt.input.LeaveOpen {
				t.Fatalf("entry Closed = %v with LeaveOpen = %v", entry.Closed, tt.input.LeaveOpen)
			}
			if got := len(f.journal.ItemsFor(entry.ID)); got != len(tt.input.Items) {
				t.Fatalf("expected %d items written, got %d", len(tt.input.Items), got)
			}
		})
	}
}

func TestLedgerUseCase_ValidationWritesNothing(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		Date:  time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		Items: items(1930, "100.00", 3000, "-100.00"),
	})
	if !errors.Is(err, domain.ErrYearClosed) {
		t.Fatalf("expected ErrYearClosed, got %v", err)
	}
	if n := len(f.journal.Entries()); n != 0 {
		t.Fatalf("closed-year rejection must not write entries, found %d", n)
	}
}

func TestLedgerUseCase_SequenceIsPerYear(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		entry, err := f.uc.CreateEntry(ctx, usecase.CreateEntryInput{
			Date:  time.Date(2026, 3, want, 0, 0, 0, 0, time.UTC),
			Items: items(1930, "10.00", 3000, "-10.00"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.Seq != want {
			t.Fatalf("entry %d got seq %d", want, entry.Seq)
		}
		if entry.Year != 2026 {
			t.Fatalf("expected year 2026, got %d", entry.Year)
		}
	}
}

func TestLedgerUseCase_MissingYearAutoCreated(t *testing.T) {
	f := newLedgerFixture(t)

	entry, err := f.uc.CreateEntry(context.Background(), usecase.CreateEntryInput{
		Date:  time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC),
		Items: items(1930, "10.00", 3000, "-10.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Year != 2027 || entry.Seq != 1 {
		t.Fatalf("expected first entry of 2027, got year %d seq %d", entry.Year, entry.Seq)
	}

	mails := f.mailQueue.Mails()
	if len(mails) != 1 {
		t.Fatalf("expected 1 alert mail, got %d", len(mails))
	}
	if mails[0].Template != domain.MailTemplateYearAutoCreated {
		t.Fatalf("unexpected template %q", mails[0].Template)
	}
	if mails[0].Recipient != "finance@example.org" {
		t.Fatalf("unexpected recipient %q", mails[0].Recipient)
	}
}

func TestLedgerUseCase_CloseEntry(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	entry, err := f.uc.CreateEntry(ctx, usecase.CreateEntryInput{
		Date:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Items:     items(1930, "100.00"),
		LeaveOpen: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.uc.CloseEntry(ctx, entry.ID, items(3000, "-99.00")); !errors.Is(err, domain.ErrUnbalancedEntry) {
		t.Fatalf("expected ErrUnbalancedEntry, got %v", err)
	}

	if err := f.uc.CloseEntry(ctx, entry.ID, items(3000, "-100.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := f.journal.GetEntry(ctx, entry.ID)
	if !got.Closed {
		t.Fatal("entry should be closed")
	}
	if n := len(f.journal.ItemsFor(entry.ID)); n != 2 {
		t.Fatalf("expected 2 items after closing, got %d", n)
	}

	if err := f.uc.CloseEntry(ctx, entry.ID, nil); !errors.Is(err, domain.ErrEntryClosed) {
		t.Fatalf("expected ErrEntryClosed, got %v", err)
	}
}

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	if err := f.uc.CheckConsistency(ctx); err != nil {
		t.Fatalf("empty ledger should be consistent: %v", err)
	}

	f.journal.UnbalancedClosedEntriesFunc = func(ctx context.Context) ([]string, error) {
		return []string{"bad-entry"}, nil
	}
	if err := f.uc.CheckConsistency(ctx); err == nil {
		t.Fatal("expected consistency error")
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/infrastructure/metrics"
)

// LedgerUseCase owns journal entry creation and the balance/immutability
// invariants around it.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	objectRepo  ObjectRepository
	yearRepo    FiscalYearRepository
	journalRepo JournalRepository
	mailQueue   MailQueue
	idGen       IDGenerator
	metrics     *metrics.Metrics

	alertRecipient string
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	objectRepo ObjectRepository,
	yearRepo FiscalYearRepository,
	journalRepo JournalRepository,
	mailQueue MailQueue,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	alertRecipient string,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:      txManager,
		accountRepo:    accountRepo,
		objectRepo:     objectRepo,
		yearRepo:       yearRepo,
		journalRepo:    journalRepo,
		mailQueue:      mailQueue,
		idGen:          idGen,
		metrics:        metrics,
		alertRecipient: alertRecipient,
	}
}

// CreateEntryInput describes a prospective journal entry. Positive item
// amounts are debits, negative are credits. Unless LeaveOpen is set the
// items must sum to exactly zero.
type CreateEntryInput struct {
	Date      time.Time
	Items     []domain.EntryItem
	LeaveOpen bool
	URLs      []string
}

// CreateEntry creates a journal entry in its own transaction.
func (uc *LedgerUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.JournalEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.CreateEntryInTx(txCtx, tx, input)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return entry, nil
}

// CreateEntryInTx creates a journal entry inside the caller's transaction,
// so payment matching can post to the ledger atomically with the invoice
// state change. Validation failures abort before any row is written.
func (uc *LedgerUseCase) CreateEntryInTx(ctx context.Context, tx Transaction, input CreateEntryInput) (*domain.JournalEntry, error) {
	if err := domain.ValidateEntryItems(input.Items, input.LeaveOpen); err != nil {
		return nil, err
	}

	year, err := uc.resolveYear(ctx, tx, input.Date.Year())
	if err != nil {
		return nil, err
	}
	if !year.IsOpen {
		return nil, fmt.Errorf("%w: %d", domain.ErrYearClosed, year.Year)
	}

	seq, err := uc.journalRepo.NextSequence(ctx, tx, year.Year)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &domain.JournalEntry{
		ID:        uc.idGen.Generate(),
		Year:      year.Year,
		Seq:       seq,
		Date:      input.Date,
		Closed:    !input.LeaveOpen,
		CreatedAt: now,
	}
	if err := uc.journalRepo.CreateEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	items := make([]*domain.JournalItem, 0, len(input.Items))
	for _, it := range input.Items {
		if _, err := uc.accountRepo.GetByNumber(ctx, tx, it.AccountNumber); err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, fmt.Errorf("%w: %d", domain.ErrAccountNotFound, it.AccountNumber)
			}
			return nil, err
		}
		if it.ObjectName != "" {
			obj, err := uc.objectRepo.GetByName(ctx, tx, it.ObjectName)
			if err != nil {
				if errors.Is(err, domain.ErrObjectNotFound) {
					return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, it.ObjectName)
				}
				return nil, err
			}
			if !obj.Active {
				return nil, fmt.Errorf("%w: %s", domain.ErrObjectInactive, it.ObjectName)
			}
		}
		items = append(items, &domain.JournalItem{
			ID:            uc.idGen.Generate(),
			EntryID:       entry.ID,
			AccountNumber: it.AccountNumber,
			Description:   domain.TruncateDescription(it.Description),
			Amount:        it.Amount,
			ObjectName:    it.ObjectName,
		})
	}
	if err := uc.journalRepo.CreateItems(ctx, tx, items); err != nil {
		return nil, err
	}

	if len(input.URLs) > 0 {
		urls := make([]*domain.JournalURL, 0, len(input.URLs))
		for _, u := range input.URLs {
			urls = append(urls, &domain.JournalURL{
				ID:      uc.idGen.Generate(),
				EntryID: entry.ID,
				URL:     u,
			})
		}
		if err := uc.journalRepo.AttachURLs(ctx, tx, urls); err != nil {
			return nil, err
		}
	}

	if uc.metrics != nil {
		uc.metrics.JournalEntriesCreated.WithLabelValues(openLabel(input.LeaveOpen)).Inc()
	}

	return entry, nil
}

// resolveYear looks up the fiscal year for the entry date. A missing year
// is auto-created open and alerted on, so automated postings arriving in
// the first days of a new year do not bounce before anyone has set it up.
func (uc *LedgerUseCase) resolveYear(ctx context.Context, tx Transaction, year int) (*domain.FiscalYear, error) {
	fy, err := uc.yearRepo.GetByYear(ctx, tx, year)
	if err == nil {
		return fy, nil
	}
	if !errors.Is(err, domain.ErrYearNotFound) {
		return nil, err
	}

	fy = &domain.FiscalYear{Year: year, IsOpen: true, CreatedAt: time.Now().UTC()}
	if err := uc.yearRepo.Create(ctx, tx, fy); err != nil {
		return nil, err
	}
	if err := uc.mailQueue.CreateTx(ctx, tx, &domain.QueuedMail{
		ID:        uc.idGen.Generate(),
		Recipient: uc.alertRecipient,
		Subject:   fmt.Sprintf("Accounting year %d created", year),
		Template:  domain.MailTemplateYearAutoCreated,
		Data:      map[string]any{"year": year},
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return fy, nil
}

// CloseEntry appends balancing items to an open entry and closes it. The
// resulting item set must sum to exactly zero.
func (uc *LedgerUseCase) CloseEntry(ctx context.Context, entryID string, items []domain.EntryItem) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.journalRepo.GetEntryForUpdate(txCtx, tx, entryID)
	if err != nil {
		return err
	}
	if entry.Closed {
		return domain.ErrEntryClosed
	}

	existing, err := uc.journalRepo.GetItems(txCtx, tx, entryID)
	if err != nil {
		return err
	}
	sum := decimal.Zero
	for _, it := range existing {
		sum = sum.Add(it.Amount)
	}

	newItems := make([]*domain.JournalItem, 0, len(items))
	for _, it := range items {
		if err := domain.ValidateAmount(it.Amount); err != nil {
			return err
		}
		sum = sum.Add(it.Amount)
		newItems = append(newItems, &domain.JournalItem{
			ID:            uc.idGen.Generate(),
			EntryID:       entryID,
			AccountNumber: it.AccountNumber,
			Description:   domain.TruncateDescription(it.Description),
			Amount:        it.Amount,
			ObjectName:    it.ObjectName,
		})
	}
	if !sum.IsZero() {
		return domain.ErrUnbalancedEntry
	}

	if len(newItems) > 0 {
		if err := uc.journalRepo.CreateItems(txCtx, tx, newItems); err != nil {
			return err
		}
	}
	if err := uc.journalRepo.CloseEntry(txCtx, tx, entryID); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// AccountBalance returns the derived balance of an account, open entries
// included.
func (uc *LedgerUseCase) AccountBalance(ctx context.Context, accountNumber int) (decimal.Decimal, error) {
	return uc.journalRepo.AccountBalance(ctx, accountNumber)
}

// CheckConsistency verifies the double-entry invariant: every closed
// journal entry sums to zero.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) error {
	bad, err := uc.journalRepo.UnbalancedClosedEntries(ctx)
	if err != nil {
		return err
	}
	if len(bad) > 0 {
		return fmt.Errorf("ledger inconsistency detected: %d closed entries do not balance (first: %s)", len(bad), bad[0])
	}
	return nil
}

func openLabel(leaveOpen bool) string {
	if leaveOpen {
		return "open"
	}
	return "closed"
}

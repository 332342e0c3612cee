package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
)

// AccountRepository defines data access for the chart of accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByNumber(ctx context.Context, tx Transaction, number int) (*domain.Account, error)
	List(ctx context.Context, availableForInvoicing bool) ([]*domain.Account, error)
}

// ObjectRepository defines data access for cost-center objects.
type ObjectRepository interface {
	Create(ctx context.Context, object *domain.Object) error
	GetByName(ctx context.Context, tx Transaction, name string) (*domain.Object, error)
	List(ctx context.Context) ([]*domain.Object, error)
}

// FiscalYearRepository defines data access for fiscal years.
type FiscalYearRepository interface {
	GetByYear(ctx context.Context, tx Transaction, year int) (*domain.FiscalYear, error)
	Create(ctx context.Context, tx Transaction, fy *domain.FiscalYear) error
	SetOpen(ctx context.Context, year int, open bool) error
}

// JournalRepository defines data access for journal entries and items.
type JournalRepository interface {
	// NextSequence allocates max(seq)+1 for the year. It must be called
	// inside the same transaction that inserts the entry, or concurrent
	// creations could observe the same maximum.
	NextSequence(ctx context.Context, tx Transaction, year int) (int, error)
	CreateEntry(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	CreateItems(ctx context.Context, tx Transaction, items []*domain.JournalItem) error
	AttachURLs(ctx context.Context, tx Transaction, urls []*domain.JournalURL) error
	GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetEntryForUpdate(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	GetItems(ctx context.Context, tx Transaction, entryID string) ([]*domain.JournalItem, error)
	CloseEntry(ctx context.Context, tx Transaction, id string) error
	ListOpenEntries(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error)
	// AccountBalance sums all item amounts for an account, open entries
	// included so pending transfers between banks stay visible.
	AccountBalance(ctx context.Context, accountNumber int) (decimal.Decimal, error)
	// UnbalancedClosedEntries returns ids of closed entries whose items do
	// not sum to zero. A non-empty result means the ledger is corrupt.
	UnbalancedClosedEntries(ctx context.Context) ([]string, error)
}

// InvoiceRepository defines data access for invoices and their rows.
type InvoiceRepository interface {
	Create(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
	CreateRows(ctx context.Context, tx Transaction, rows []*domain.InvoiceRow) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number int64) (*domain.Invoice, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Invoice, error)
	GetRows(ctx context.Context, tx Transaction, invoiceID string) ([]*domain.InvoiceRow, error)
	Update(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
	SetInvoicePDF(ctx context.Context, tx Transaction, id string, pdf []byte) error
	SetReceiptPDF(ctx context.Context, tx Transaction, id string, pdf []byte) error
	// DeleteWithRows hard-deletes an unfinalized invoice and its rows.
	DeleteWithRows(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.Invoice, error)
	// ListExpired returns finalized, unpaid, undeleted, refund-free
	// invoices whose cancel time has passed.
	ListExpired(ctx context.Context, now time.Time) ([]*domain.Invoice, error)
	// ListDueReminders returns finalized, unpaid, undeleted invoices past
	// their due date that have not yet been reminded.
	ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Invoice, error)
}

// RefundRepository defines data access for invoice refunds.
type RefundRepository interface {
	Create(ctx context.Context, tx Transaction, refund *domain.InvoiceRefund) error
	GetByID(ctx context.Context, id string) (*domain.InvoiceRefund, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.InvoiceRefund, error)
	Update(ctx context.Context, tx Transaction, refund *domain.InvoiceRefund) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceRefund, error)
	// ListUnissued returns ids of refunds still waiting to be issued. The
	// scan runs outside any transaction; callers re-lock each row before
	// mutating it.
	ListUnissued(ctx context.Context) ([]string, error)
	// ListStalled returns refunds issued before the given time that have
	// not completed.
	ListStalled(ctx context.Context, issuedBefore time.Time) ([]*domain.InvoiceRefund, error)
}

// BankTransactionRepository defines data access for pending bank rows.
type BankTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, bt *domain.PendingBankTransaction) error
	GetByID(ctx context.Context, id string) (*domain.PendingBankTransaction, error)
	Delete(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.PendingBankTransaction, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.PendingBankTransaction, error)
}

// HistoryRepository defines the write-only audit surface: the per-invoice
// timeline and the global settlement log.
type HistoryRepository interface {
	AppendHistory(ctx context.Context, tx Transaction, invoiceID, text string) error
	AppendLog(ctx context.Context, tx Transaction, message string) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceHistory, error)
}

// MailQueue queues notifications for asynchronous delivery. CreateTx
// participates in the caller's transaction so a rolled-back payment never
// sends a receipt.
type MailQueue interface {
	Create(ctx context.Context, mail *domain.QueuedMail) error
	CreateTx(ctx context.Context, tx Transaction, mail *domain.QueuedMail) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient database failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage for webhook delivery.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// NextSequence allocates max(seq)+1 for the year inside the caller's
// transaction. The UNIQUE (year, seq) constraint turns two transactions
// racing for the same number into a serialization failure the retrier
// replays, so the per-year numbering stays gap-free.
func (r *JournalRepository) NextSequence(ctx context.Context, tx usecase.Transaction, year int) (int, error) {
	var seq int
	err := txQuerier(tx).QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM journal_entries WHERE year = $1`,
		year,
	).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// CreateEntry inserts a journal entry inside the caller's transaction.
func (r *JournalRepository) CreateEntry(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	_, err := txQuerier(tx).Exec(ctx,
		`INSERT INTO journal_entries (id, year, seq, entry_date, closed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Year, entry.Seq, timeToPgTimestamptz(entry.Date), entry.Closed, timeToPgTimestamptz(entry.CreatedAt),
	)
	return err
}

// CreateItems inserts journal items inside the caller's transaction.
func (r *JournalRepository) CreateItems(ctx context.Context, tx usecase.Transaction, items []*domain.JournalItem) error {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(
			`INSERT INTO journal_items (id, entry_id, account_number, description, amount, object_name)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
			item.ID, item.EntryID, item.AccountNumber, item.Description, decimalToNumeric(item.Amount), item.ObjectName,
		)
	}
	return txQuerier(tx).SendBatch(ctx, batch).Close()
}

// AttachURLs inserts audit references inside the caller's transaction.
func (r *JournalRepository) AttachURLs(ctx context.Context, tx usecase.Transaction, urls []*domain.JournalURL) error {
	batch := &pgx.Batch{}
	for _, u := range urls {
		batch.Queue(
			`INSERT INTO journal_urls (id, entry_id, url) VALUES ($1, $2, $3)`,
			u.ID, u.EntryID, u.URL,
		)
	}
	return txQuerier(tx).SendBatch(ctx, batch).Close()
}

// GetEntry retrieves a journal entry by id.
func (r *JournalRepository) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return scanEntry(r.pool.QueryRow(ctx,
		`SELECT id, year, seq, entry_date, closed, created_at
		 FROM journal_entries WHERE id = $1`,
		id,
	))
}

// GetEntryForUpdate retrieves a journal entry with a FOR UPDATE lock.
func (r *JournalRepository) GetEntryForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return scanEntry(txQuerier(tx).QueryRow(ctx,
		`SELECT id, year, seq, entry_date, closed, created_at
		 FROM journal_entries WHERE id = $1 FOR UPDATE`,
		id,
	))
}

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	if err := row.Scan(&entry.ID, &entry.Year, &entry.Seq, &entry.Date, &entry.Closed, &entry.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// GetItems retrieves the items of an entry inside the caller's transaction.
func (r *JournalRepository) GetItems(ctx context.Context, tx usecase.Transaction, entryID string) ([]*domain.JournalItem, error) {
	rows, err := txQuerier(tx).Query(ctx,
		`SELECT id, entry_id, account_number, description, amount, COALESCE(object_name, '')
		 FROM journal_items WHERE entry_id = $1 ORDER BY id`,
		entryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.JournalItem
	for rows.Next() {
		var item domain.JournalItem
		var amount pgtype.Numeric
		if err := rows.Scan(&item.ID, &item.EntryID, &item.AccountNumber, &item.Description, &amount, &item.ObjectName); err != nil {
			return nil, err
		}
		item.Amount = numericToDecimal(amount)
		items = append(items, &item)
	}
	return items, rows.Err()
}

// CloseEntry marks an entry closed inside the caller's transaction.
func (r *JournalRepository) CloseEntry(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := txQuerier(tx).Exec(ctx,
		`UPDATE journal_entries SET closed = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// ListOpenEntries retrieves entries awaiting manual completion.
func (r *JournalRepository) ListOpenEntries(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, year, seq, entry_date, closed, created_at
		 FROM journal_entries WHERE NOT closed
		 ORDER BY year, seq
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		var entry domain.JournalEntry
		if err := rows.Scan(&entry.ID, &entry.Year, &entry.Seq, &entry.Date, &entry.Closed, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// AccountBalance sums all postings against an account, open entries
// included.
func (r *JournalRepository) AccountBalance(ctx context.Context, accountNumber int) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM journal_items WHERE account_number = $1`,
		accountNumber,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return numericToDecimal(sum), nil
}

// UnbalancedClosedEntries returns ids of closed entries whose items do not
// sum to zero.
func (r *JournalRepository) UnbalancedClosedEntries(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id
		 FROM journal_entries e
		 JOIN journal_items i ON i.entry_id = e.id
		 WHERE e.closed
		 GROUP BY e.id
		 HAVING SUM(i.amount) <> 0`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

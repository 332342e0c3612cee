package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// HistoryRepository implements usecase.HistoryRepository. History rows are
// append-only audit data keyed by random UUIDs; nothing ever references
// them, so they do not need the sortable ids the business tables use.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// AppendHistory adds a line to an invoice's timeline inside the caller's
// transaction.
func (r *HistoryRepository) AppendHistory(ctx context.Context, tx usecase.Transaction, invoiceID, text string) error {
	_, err := txQuerier(tx).Exec(ctx,
		`INSERT INTO invoice_history (id, invoice_id, happened_at, history_text)
		 VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), invoiceID, timeToPgTimestamptz(time.Now().UTC()), text,
	)
	return err
}

// AppendLog adds a line to the global settlement log inside the caller's
// transaction.
func (r *HistoryRepository) AppendLog(ctx context.Context, tx usecase.Transaction, message string) error {
	_, err := txQuerier(tx).Exec(ctx,
		`INSERT INTO invoice_log (id, logged_at, message) VALUES ($1, $2, $3)`,
		uuid.NewString(), timeToPgTimestamptz(time.Now().UTC()), message,
	)
	return err
}

// ListByInvoice retrieves the timeline of an invoice, oldest first.
func (r *HistoryRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, happened_at, history_text
		 FROM invoice_history WHERE invoice_id = $1 ORDER BY happened_at`,
		invoiceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.InvoiceHistory
	for rows.Next() {
		var h domain.InvoiceHistory
		if err := rows.Scan(&h.ID, &h.InvoiceID, &h.Time, &h.Text); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// BankTransactionRepository implements usecase.BankTransactionRepository.
type BankTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewBankTransactionRepository creates a new BankTransactionRepository.
func NewBankTransactionRepository(pool *pgxpool.Pool) *BankTransactionRepository {
	return &BankTransactionRepository{pool: pool}
}

// Create parks a bank-statement row inside the caller's transaction.
func (r *BankTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, bt *domain.PendingBankTransaction) error {
	_, err := txQuerier(tx).Exec(ctx,
		`INSERT INTO pending_bank_transactions (id, method, amount, trans_text, sender, can_return, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		bt.ID, bt.Method, decimalToNumeric(bt.Amount), bt.TransText, bt.Sender, bt.CanReturn, timeToPgTimestamptz(bt.CreatedAt),
	)
	return err
}

// GetByID retrieves a pending row by id.
func (r *BankTransactionRepository) GetByID(ctx context.Context, id string) (*domain.PendingBankTransaction, error) {
	return scanBankTransaction(r.pool.QueryRow(ctx,
		`SELECT id, method, amount, trans_text, sender, can_return, created_at
		 FROM pending_bank_transactions WHERE id = $1`, id,
	))
}

func scanBankTransaction(row pgx.Row) (*domain.PendingBankTransaction, error) {
	var (
		bt     domain.PendingBankTransaction
		amount pgtype.Numeric
	)
	if err := row.Scan(&bt.ID, &bt.Method, &amount, &bt.TransText, &bt.Sender, &bt.CanReturn, &bt.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBankTransactionNotFound
		}
		return nil, err
	}
	bt.Amount = numericToDecimal(amount)
	return &bt, nil
}

// Delete removes a handled row inside the caller's transaction.
func (r *BankTransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := txQuerier(tx).Exec(ctx,
		`DELETE FROM pending_bank_transactions WHERE id = $1`, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBankTransactionNotFound
	}
	return nil
}

// List retrieves pending rows, oldest first.
func (r *BankTransactionRepository) List(ctx context.Context, limit, offset int) ([]*domain.PendingBankTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, method, amount, trans_text, sender, can_return, created_at
		 FROM pending_bank_transactions ORDER BY created_at LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectBankTransactions(rows)
}

// ListOlderThan retrieves pending rows created before the cutoff.
func (r *BankTransactionRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.PendingBankTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, method, amount, trans_text, sender, can_return, created_at
		 FROM pending_bank_transactions WHERE created_at < $1 ORDER BY created_at`,
		timeToPgTimestamptz(cutoff),
	)
	if err != nil {
		return nil, err
	}
	return collectBankTransactions(rows)
}

func collectBankTransactions(rows pgx.Rows) ([]*domain.PendingBankTransaction, error) {
	defer rows.Close()

	var out []*domain.PendingBankTransaction
	for rows.Next() {
		bt, err := scanBankTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}

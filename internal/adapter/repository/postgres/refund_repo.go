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

// RefundRepository implements usecase.RefundRepository.
type RefundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository creates a new RefundRepository.
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

const refundColumns = `id, invoice_id, reason, amount, vat_amount, vat_rate,
	registered, issued, completed, payment_reference`

// Create inserts a registered refund inside the caller's transaction.
func (r *RefundRepository) Create(ctx context.Context, tx usecase.Transaction, refund *domain.InvoiceRefund) error {
	_, err := txQuerier(tx).Exec(ctx,
		`INSERT INTO invoice_refunds (
			id, invoice_id, reason, amount, vat_amount, vat_rate,
			registered, issued, completed, payment_reference
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		refund.ID, refund.InvoiceID, refund.Reason,
		decimalToNumeric(refund.Amount), decimalToNumeric(refund.VATAmount), decimalToNumeric(refund.VATRate),
		timeToPgTimestamptz(refund.Registered), timePtrToPgTimestamptz(refund.Issued),
		timePtrToPgTimestamptz(refund.Completed), refund.PaymentReference,
	)
	return err
}

// GetByID retrieves a refund by id.
func (r *RefundRepository) GetByID(ctx context.Context, id string) (*domain.InvoiceRefund, error) {
	return scanRefund(r.pool.QueryRow(ctx,
		`SELECT `+refundColumns+` FROM invoice_refunds WHERE id = $1`, id,
	))
}

// GetByIDForUpdate retrieves a refund with a FOR UPDATE lock, serializing
// the queue processor against webhook-driven completion.
func (r *RefundRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.InvoiceRefund, error) {
	return scanRefund(txQuerier(tx).QueryRow(ctx,
		`SELECT `+refundColumns+` FROM invoice_refunds WHERE id = $1 FOR UPDATE`, id,
	))
}

func scanRefund(row pgx.Row) (*domain.InvoiceRefund, error) {
	var (
		refund            domain.InvoiceRefund
		amount, vat, rate pgtype.Numeric
		issued, completed pgtype.Timestamptz
	)
	err := row.Scan(
		&refund.ID, &refund.InvoiceID, &refund.Reason, &amount, &vat, &rate,
		&refund.Registered, &issued, &completed, &refund.PaymentReference,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRefundNotFound
		}
		return nil, err
	}
	refund.Amount = numericToDecimal(amount)
	refund.VATAmount = numericToDecimal(vat)
	refund.VATRate = numericToDecimal(rate)
	refund.Issued = pgTimestamptzToTimePtr(issued)
	refund.Completed = pgTimestamptzToTimePtr(completed)
	return &refund, nil
}

// Update persists refund state inside the caller's transaction.
func (r *RefundRepository) Update(ctx context.Context, tx usecase.Transaction, refund *domain.InvoiceRefund) error {
	tag, err := txQuerier(tx).Exec(ctx,
		`UPDATE invoice_refunds SET
			issued = $2, completed = $3, payment_reference = $4
		 WHERE id = $1`,
		refund.ID, timePtrToPgTimestamptz(refund.Issued),
		timePtrToPgTimestamptz(refund.Completed), refund.PaymentReference,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRefundNotFound
	}
	return nil
}

// ListByInvoice retrieves all refunds of an invoice.
func (r *RefundRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceRefund, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+refundColumns+` FROM invoice_refunds WHERE invoice_id = $1 ORDER BY registered`,
		invoiceID,
	)
	if err != nil {
		return nil, err
	}
	return collectRefunds(rows)
}

// ListUnissued returns ids of refunds waiting on the provider API.
func (r *RefundRepository) ListUnissued(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM invoice_refunds WHERE issued IS NULL ORDER BY registered`,
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

// ListStalled returns refunds issued before the cutoff that never
// completed.
func (r *RefundRepository) ListStalled(ctx context.Context, issuedBefore time.Time) ([]*domain.InvoiceRefund, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+refundColumns+` FROM invoice_refunds
		 WHERE issued IS NOT NULL AND completed IS NULL AND issued < $1
		 ORDER BY issued`,
		timeToPgTimestamptz(issuedBefore),
	)
	if err != nil {
		return nil, err
	}
	return collectRefunds(rows)
}

func collectRefunds(rows pgx.Rows) ([]*domain.InvoiceRefund, error) {
	defer rows.Close()

	var refunds []*domain.InvoiceRefund
	for rows.Next() {
		refund, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}
	return refunds, rows.Err()
}

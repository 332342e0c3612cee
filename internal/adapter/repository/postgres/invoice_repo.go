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

// InvoiceRepository implements usecase.InvoiceRepository. Invoice numbers
// come from a bigserial so the bank-statement reference "#<number>" stays
// short and human-typable, while the string id is the API identity.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

const invoiceColumns = `id, number, recipient_user_id, recipient_name, recipient_email, recipient_address,
	title, invoice_date, due_date, cancel_time, total_amount, total_vat,
	finalized, deleted, deletion_reason, paid_at, payment_details, paid_using,
	processor, processor_id, accounting_account, accounting_object,
	reminders_sent, recipient_secret, allowed_methods, created_at, updated_at`

// Create inserts a draft invoice and reads back its assigned number.
func (r *InvoiceRepository) Create(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	return txQuerier(tx).QueryRow(ctx,
		`INSERT INTO invoices (
			id, recipient_user_id, recipient_name, recipient_email, recipient_address,
			title, invoice_date, due_date, cancel_time, total_amount, total_vat,
			processor, processor_id, accounting_account, accounting_object,
			allowed_methods, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING number`,
		invoice.ID, invoice.RecipientUserID, invoice.RecipientName, invoice.RecipientEmail, invoice.RecipientAddress,
		invoice.Title, timeToPgTimestamptz(invoice.InvoiceDate), timeToPgTimestamptz(invoice.DueDate),
		timePtrToPgTimestamptz(invoice.CancelTime), decimalToNumeric(invoice.TotalAmount), decimalToNumeric(invoice.TotalVAT),
		invoice.Processor, invoice.ProcessorID, invoice.AccountingAccount, invoice.AccountingObject,
		invoice.AllowedMethods, timeToPgTimestamptz(invoice.CreatedAt), timeToPgTimestamptz(invoice.UpdatedAt),
	).Scan(&invoice.Number)
}

// CreateRows inserts invoice rows inside the caller's transaction.
func (r *InvoiceRepository) CreateRows(ctx context.Context, tx usecase.Transaction, rows []*domain.InvoiceRow) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO invoice_rows (id, invoice_id, row_text, row_amount, row_count, vat_rate)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			row.ID, row.InvoiceID, row.Text, decimalToNumeric(row.RowAmount), row.RowCount, decimalToNumeric(row.VATRate),
		)
	}
	return txQuerier(tx).SendBatch(ctx, batch).Close()
}

// GetByID retrieves an invoice by its string id. Unlike the list queries
// it also loads the rendered documents, which only single-invoice callers
// serve.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id,
	))
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx,
		`SELECT pdf_invoice, pdf_receipt FROM invoices WHERE id = $1`, id,
	).Scan(&inv.PDFInvoice, &inv.PDFReceipt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GetByNumber retrieves an invoice by its bank-reference number.
func (r *InvoiceRepository) GetByNumber(ctx context.Context, number int64) (*domain.Invoice, error) {
	return scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE number = $1`, number,
	))
}

// GetByIDForUpdate retrieves an invoice with a FOR UPDATE lock.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Invoice, error) {
	return scanInvoice(txQuerier(tx).QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id,
	))
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		inv         domain.Invoice
		cancelTime  pgtype.Timestamptz
		total, vat  pgtype.Numeric
		paidAt      pgtype.Timestamptz
		deletionRsn pgtype.Text
	)
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.RecipientUserID, &inv.RecipientName, &inv.RecipientEmail, &inv.RecipientAddress,
		&inv.Title, &inv.InvoiceDate, &inv.DueDate, &cancelTime, &total, &vat,
		&inv.Finalized, &inv.Deleted, &deletionRsn, &paidAt, &inv.PaymentDetails, &inv.PaidUsing,
		&inv.Processor, &inv.ProcessorID, &inv.AccountingAccount, &inv.AccountingObject,
		&inv.RemindersSent, &inv.RecipientSecret, &inv.AllowedMethods, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	inv.CancelTime = pgTimestamptzToTimePtr(cancelTime)
	inv.PaidAt = pgTimestamptzToTimePtr(paidAt)
	inv.TotalAmount = numericToDecimal(total)
	inv.TotalVAT = numericToDecimal(vat)
	if deletionRsn.Valid {
		inv.DeletionReason = deletionRsn.String
	}
	return &inv, nil
}

// GetRows retrieves the rows of an invoice inside the caller's transaction.
func (r *InvoiceRepository) GetRows(ctx context.Context, tx usecase.Transaction, invoiceID string) ([]*domain.InvoiceRow, error) {
	rows, err := txQuerier(tx).Query(ctx,
		`SELECT id, invoice_id, row_text, row_amount, row_count, vat_rate
		 FROM invoice_rows WHERE invoice_id = $1 ORDER BY id`,
		invoiceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.InvoiceRow
	for rows.Next() {
		var (
			row           domain.InvoiceRow
			amount, vRate pgtype.Numeric
		)
		if err := rows.Scan(&row.ID, &row.InvoiceID, &row.Text, &amount, &row.RowCount, &vRate); err != nil {
			return nil, err
		}
		row.RowAmount = numericToDecimal(amount)
		row.VATRate = numericToDecimal(vRate)
		out = append(out, &row)
	}
	return out, rows.Err()
}

// Update persists the mutable invoice fields inside the caller's
// transaction.
func (r *InvoiceRepository) Update(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	tag, err := txQuerier(tx).Exec(ctx,
		`UPDATE invoices SET
			recipient_name = $2, recipient_email = $3, recipient_address = $4,
			title = $5, due_date = $6, cancel_time = $7,
			total_amount = $8, total_vat = $9,
			finalized = $10, deleted = $11, deletion_reason = $12,
			paid_at = $13, payment_details = $14, paid_using = $15,
			accounting_account = $16, accounting_object = $17,
			reminders_sent = $18, recipient_secret = $19, allowed_methods = $20,
			updated_at = $21
		 WHERE id = $1`,
		invoice.ID, invoice.RecipientName, invoice.RecipientEmail, invoice.RecipientAddress,
		invoice.Title, timeToPgTimestamptz(invoice.DueDate), timePtrToPgTimestamptz(invoice.CancelTime),
		decimalToNumeric(invoice.TotalAmount), decimalToNumeric(invoice.TotalVAT),
		invoice.Finalized, invoice.Deleted, invoice.DeletionReason,
		timePtrToPgTimestamptz(invoice.PaidAt), invoice.PaymentDetails, invoice.PaidUsing,
		invoice.AccountingAccount, invoice.AccountingObject,
		invoice.RemindersSent, invoice.RecipientSecret, invoice.AllowedMethods,
		timeToPgTimestamptz(invoice.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// SetInvoicePDF stores the rendered invoice document.
func (r *InvoiceRepository) SetInvoicePDF(ctx context.Context, tx usecase.Transaction, id string, pdf []byte) error {
	_, err := txQuerier(tx).Exec(ctx,
		`UPDATE invoices SET pdf_invoice = $2 WHERE id = $1`, id, pdf,
	)
	return err
}

// SetReceiptPDF stores the rendered receipt document.
func (r *InvoiceRepository) SetReceiptPDF(ctx context.Context, tx usecase.Transaction, id string, pdf []byte) error {
	_, err := txQuerier(tx).Exec(ctx,
		`UPDATE invoices SET pdf_receipt = $2 WHERE id = $1`, id, pdf,
	)
	return err
}

// DeleteWithRows hard-deletes a draft invoice, its rows cascading.
func (r *InvoiceRepository) DeleteWithRows(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := txQuerier(tx).Exec(ctx,
		`DELETE FROM invoices WHERE id = $1 AND NOT finalized`, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

// List retrieves invoices ordered by number, newest first.
func (r *InvoiceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Invoice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices ORDER BY number DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// ListExpired returns finalized, unpaid, undeleted invoices past their
// cancel time that have no refund activity.
func (r *InvoiceRepository) ListExpired(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices i
		 WHERE i.finalized AND NOT i.deleted AND i.paid_at IS NULL
		   AND i.cancel_time IS NOT NULL AND i.cancel_time < $1
		   AND NOT EXISTS (SELECT 1 FROM invoice_refunds r WHERE r.invoice_id = i.id)
		 ORDER BY i.number`,
		timeToPgTimestamptz(now),
	)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// ListDueReminders returns finalized, unpaid, undeleted invoices past their
// due date that have not been reminded yet.
func (r *InvoiceRepository) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices
		 WHERE finalized AND NOT deleted AND paid_at IS NULL
		   AND due_date < $1 AND reminders_sent = 0
		 ORDER BY number`,
		timeToPgTimestamptz(now),
	)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

func collectInvoices(rows pgx.Rows) ([]*domain.Invoice, error) {
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

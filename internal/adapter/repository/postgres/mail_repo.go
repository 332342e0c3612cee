package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// MailRepository implements usecase.MailQueue on a postgres table. Queuing
// through the database rather than talking to an SMTP server directly is
// what lets a receipt mail commit or roll back together with the payment
// that caused it.
type MailRepository struct {
	pool *pgxpool.Pool
}

// NewMailRepository creates a new MailRepository.
func NewMailRepository(pool *pgxpool.Pool) *MailRepository {
	return &MailRepository{pool: pool}
}

const insertMail = `INSERT INTO mail_queue (id, recipient, subject, template, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

// Create queues a mail outside any caller transaction.
func (r *MailRepository) Create(ctx context.Context, mail *domain.QueuedMail) error {
	payload, err := json.Marshal(mail.Data)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertMail,
		mail.ID, mail.Recipient, mail.Subject, mail.Template, payload, timeToPgTimestamptz(mail.CreatedAt),
	)
	return err
}

// CreateTx queues a mail inside the caller's transaction.
func (r *MailRepository) CreateTx(ctx context.Context, tx usecase.Transaction, mail *domain.QueuedMail) error {
	payload, err := json.Marshal(mail.Data)
	if err != nil {
		return err
	}
	_, err = txQuerier(tx).Exec(ctx, insertMail,
		mail.ID, mail.Recipient, mail.Subject, mail.Template, payload, timeToPgTimestamptz(mail.CreatedAt),
	)
	return err
}

// NextUnsent returns up to limit unsent mails, oldest first.
func (r *MailRepository) NextUnsent(ctx context.Context, limit int) ([]*domain.QueuedMail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, recipient, subject, template, payload, created_at
		 FROM mail_queue WHERE sent_at IS NULL
		 ORDER BY created_at LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.QueuedMail
	for rows.Next() {
		var (
			mail    domain.QueuedMail
			payload []byte
		)
		if err := rows.Scan(&mail.ID, &mail.Recipient, &mail.Subject, &mail.Template, &payload, &mail.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &mail.Data); err != nil {
				return nil, err
			}
		}
		out = append(out, &mail)
	}
	return out, rows.Err()
}

// MarkSent stamps a mail delivered.
func (r *MailRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE mail_queue SET sent_at = $2 WHERE id = $1`,
		id, timeToPgTimestamptz(at),
	)
	return err
}

package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/eventfin/fincore/internal/domain"
)

// MailStore is the slice of the mail queue the worker needs: fetch the
// oldest unsent mails and stamp the ones that went out.
type MailStore interface {
	NextUnsent(ctx context.Context, limit int) ([]*domain.QueuedMail, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
}

// Sender delivers a single queued mail to the outside world.
type Sender interface {
	Send(ctx context.Context, mail *domain.QueuedMail) error
}

// Worker drains the mail queue. Mails are queued inside the same database
// transaction as the financial effect they announce, so delivery here is
// at-least-once: a crash between Send and MarkSent re-sends the mail.
type Worker struct {
	store     MailStore
	sender    Sender
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
}

// Config for Worker.
type Config struct {
	Store     MailStore
	Sender    Sender
	Logger    *slog.Logger
	BatchSize int           // Number of mails to fetch per batch
	Interval  time.Duration // Polling interval
}

// NewWorker creates a mail queue worker.
func NewWorker(cfg Config) *Worker {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 50
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Worker{
		store:     cfg.Store,
		sender:    cfg.Sender,
		logger:    cfg.Logger,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
	}
}

// Start begins the delivery loop. It runs until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("mail worker started",
		slog.Int("batch_size", w.batchSize),
		slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Drain immediately on start
	if err := w.drain(ctx); err != nil {
		w.logger.Error("error draining mail queue on start", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("mail worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.Error("error draining mail queue", slog.String("error", err.Error()))
			}
		}
	}
}

// drain fetches and sends one batch of unsent mails.
func (w *Worker) drain(ctx context.Context) error {
	mails, err := w.store.NextUnsent(ctx, w.batchSize)
	if err != nil {
		return err
	}

	if len(mails) == 0 {
		return nil
	}

	w.logger.Info("delivering queued mails", slog.Int("count", len(mails)))

	for _, mail := range mails {
		if err := w.sender.Send(ctx, mail); err != nil {
			w.logger.Error("failed to send mail",
				slog.String("mail_id", mail.ID),
				slog.String("template", mail.Template),
				slog.String("error", err.Error()))
			// Continue delivering other mails even if one fails
			continue
		}

		if err := w.store.MarkSent(ctx, mail.ID, time.Now()); err != nil {
			w.logger.Error("failed to mark mail as sent",
				slog.String("mail_id", mail.ID),
				slog.String("error", err.Error()))
			// Don't continue - we don't want to double-send this mail
		}
	}

	return nil
}

// LogSender is a Sender that logs mails instead of delivering them. Used
// in development and as the default when no SMTP relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the mail.
func (s *LogSender) Send(ctx context.Context, mail *domain.QueuedMail) error {
	payload, err := json.Marshal(mail.Data)
	if err != nil {
		return err
	}

	s.logger.Info("MAIL QUEUED FOR DELIVERY",
		slog.String("mail_id", mail.ID),
		slog.String("recipient", mail.Recipient),
		slog.String("subject", mail.Subject),
		slog.String("template", mail.Template),
		slog.String("payload", string(payload)))

	return nil
}

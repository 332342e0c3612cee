package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/infrastructure/metrics"
)

// InvoiceUseCase owns the invoice lifecycle: draft, finalize, cancel,
// delete and the auto-cancel/reminder jobs.
type InvoiceUseCase struct {
	txManager   TransactionManager
	invoiceRepo InvoiceRepository
	historyRepo HistoryRepository
	mailQueue   MailQueue
	renderer    Renderer
	dispatcher  ProcessorDispatcher
	idGen       IDGenerator
	metrics     *metrics.Metrics

	invoicePrefix string
}

// NewInvoiceUseCase creates a new InvoiceUseCase.
func NewInvoiceUseCase(
	txManager TransactionManager,
	invoiceRepo InvoiceRepository,
	historyRepo HistoryRepository,
	mailQueue MailQueue,
	renderer Renderer,
	dispatcher ProcessorDispatcher,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	invoicePrefix string,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txManager:     txManager,
		invoiceRepo:   invoiceRepo,
		historyRepo:   historyRepo,
		mailQueue:     mailQueue,
		renderer:      renderer,
		dispatcher:    dispatcher,
		idGen:         idGen,
		metrics:       metrics,
		invoicePrefix: invoicePrefix,
	}
}

// RowInput is one line item of a new invoice.
type RowInput struct {
	Text    string
	Amount  decimal.Decimal
	Count   int
	VATRate decimal.Decimal
}

// CreateInvoiceInput describes a new invoice.
type CreateInvoiceInput struct {
	RecipientUserID  string
	RecipientName    string
	RecipientEmail   string
	RecipientAddress string

	Title       string
	InvoiceDate time.Time
	DueDate     time.Time
	CancelTime  *time.Time

	Rows []RowInput

	Processor   string
	ProcessorID string

	AccountingAccount int
	AccountingObject  string

	AllowedMethods []string

	// Finalize immediately freezes the rows and renders the PDF, the
	// common path for invoices generated by other subsystems.
	Finalize bool
}

// Create persists a draft invoice with the sentinel total. Rows stay
// editable until finalization.
func (uc *InvoiceUseCase) Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error) {
	if len(input.Rows) == 0 {
		return nil, domain.ErrEmptyInvoice
	}
	for _, r := range input.Rows {
		if !domain.RoundedToCents(r.Amount) {
			return nil, domain.ErrUnroundedAmount
		}
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	inv := &domain.Invoice{
		ID:                uc.idGen.Generate(),
		RecipientUserID:   input.RecipientUserID,
		RecipientName:     input.RecipientName,
		RecipientEmail:    input.RecipientEmail,
		RecipientAddress:  input.RecipientAddress,
		Title:             input.Title,
		InvoiceDate:       input.InvoiceDate,
		DueDate:           input.DueDate,
		CancelTime:        input.CancelTime,
		TotalAmount:       domain.UnfinalizedTotal,
		TotalVAT:          decimal.Zero,
		Processor:         input.Processor,
		ProcessorID:       input.ProcessorID,
		AccountingAccount: input.AccountingAccount,
		AccountingObject:  input.AccountingObject,
		AllowedMethods:    input.AllowedMethods,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.invoiceRepo.Create(txCtx, tx, inv); err != nil {
		return nil, err
	}

	rows := make([]*domain.InvoiceRow, 0, len(input.Rows))
	for _, r := range input.Rows {
		rows = append(rows, &domain.InvoiceRow{
			ID:        uc.idGen.Generate(),
			InvoiceID: inv.ID,
			Text:      r.Text,
			RowAmount: r.Amount,
			RowCount:  r.Count,
			VATRate:   r.VATRate,
		})
	}
	if err := uc.invoiceRepo.CreateRows(txCtx, tx, rows); err != nil {
		return nil, err
	}

	if err := uc.historyRepo.AppendHistory(txCtx, tx, inv.ID, "Invoice created"); err != nil {
		return nil, err
	}

	if input.Finalize {
		if err := uc.finalizeInTx(txCtx, tx, inv); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesCreated.Inc()
		if input.Finalize {
			uc.metrics.InvoicesFinalized.Inc()
		}
	}

	return inv, nil
}

// Finalize freezes the row-derived totals, renders and stores the invoice
// document and generates the recipient secret. A one-way transition.
func (uc *InvoiceUseCase) Finalize(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	inv, err := uc.invoiceRepo.GetByIDForUpdate(txCtx, tx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := uc.finalizeInTx(txCtx, tx, inv); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesFinalized.Inc()
	}

	return inv, nil
}

func (uc *InvoiceUseCase) finalizeInTx(ctx context.Context, tx Transaction, inv *domain.Invoice) error {
	if inv.Finalized {
		return domain.ErrInvoiceFinalized
	}
	if inv.Deleted {
		return domain.ErrInvoiceDeleted
	}

	rows, err := uc.invoiceRepo.GetRows(ctx, tx, inv.ID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrEmptyInvoice
	}

	rowVals := make([]domain.InvoiceRow, 0, len(rows))
	for _, r := range rows {
		rowVals = append(rowVals, *r)
	}
	inv.TotalAmount, inv.TotalVAT = domain.InvoiceTotals(rowVals)

	pdf, err := uc.renderer.RenderInvoice(inv, rows)
	if err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}

	secret, err := recipientSecret(pdf)
	if err != nil {
		return err
	}
	inv.RecipientSecret = secret
	inv.Finalized = true
	inv.UpdatedAt = time.Now().UTC()

	if err := uc.invoiceRepo.Update(ctx, tx, inv); err != nil {
		return err
	}
	if err := uc.invoiceRepo.SetInvoicePDF(ctx, tx, inv.ID, pdf); err != nil {
		return err
	}
	return uc.historyRepo.AppendHistory(ctx, tx, inv.ID, fmt.Sprintf("Invoice finalized, total %s (VAT %s)", inv.TotalAmount, inv.TotalVAT))
}

// recipientSecret derives the unauthenticated viewing token from a hash of
// the rendered document plus fresh random bytes. Secrecy only; it is not
// an authorization credential.
func recipientSecret(pdf []byte) (string, error) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write(pdf)
	h.Write(random)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Delete hard-deletes a draft invoice and its rows. Finalized invoices can
// only be canceled.
func (uc *InvoiceUseCase) Delete(ctx context.Context, invoiceID string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	inv, err := uc.invoiceRepo.GetByIDForUpdate(txCtx, tx, invoiceID)
	if err != nil {
		return err
	}
	if inv.Finalized {
		return domain.ErrInvoiceFinalized
	}

	if err := uc.invoiceRepo.DeleteWithRows(txCtx, tx, invoiceID); err != nil {
		return err
	}
	return tx.Commit(txCtx)
}

// Cancel marks a finalized, unpaid invoice as canceled. The invoice's
// processor gets to veto: if its handler fails, the cancel fails with it.
// Re-canceling a canceled invoice is an error, not a no-op, to surface
// programmer mistakes.
func (uc *InvoiceUseCase) Cancel(ctx context.Context, invoiceID, reason string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	inv, err := uc.invoiceRepo.GetByIDForUpdate(txCtx, tx, invoiceID)
	if err != nil {
		return err
	}
	if err := inv.CanCancel(); err != nil {
		return err
	}

	if inv.Processor != "" {
		if err := uc.dispatcher.Dispatch(txCtx, domain.ProcessorEvent{
			Kind:    domain.InvoiceCanceled,
			Invoice: inv,
		}); err != nil {
			return fmt.Errorf("processor vetoed cancellation: %w", err)
		}
	}

	inv.Deleted = true
	inv.DeletionReason = reason
	inv.UpdatedAt = time.Now().UTC()
	if err := uc.invoiceRepo.Update(txCtx, tx, inv); err != nil {
		return err
	}

	if err := uc.historyRepo.AppendHistory(txCtx, tx, inv.ID, "Invoice canceled: "+reason); err != nil {
		return err
	}

	if inv.RecipientEmail != "" {
		if err := uc.mailQueue.CreateTx(txCtx, tx, &domain.QueuedMail{
			ID:        uc.idGen.Generate(),
			Recipient: inv.RecipientEmail,
			Subject:   fmt.Sprintf("Invoice #%d canceled", inv.Number),
			Template:  domain.MailTemplateCancellation,
			Data:      map[string]any{"invoice_id": inv.ID, "title": inv.Title, "reason": reason},
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesCanceled.Inc()
	}

	return nil
}

// ExtendAutoCancel pushes the auto-cancel deadline forward, used to keep an
// auto-cancel job from racing a payment known to be in flight.
func (uc *InvoiceUseCase) ExtendAutoCancel(ctx context.Context, invoiceID string, days int) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	inv, err := uc.invoiceRepo.GetByIDForUpdate(txCtx, tx, invoiceID)
	if err != nil {
		return err
	}
	if inv.Deleted {
		return domain.ErrInvoiceDeleted
	}
	if inv.IsPaid() {
		return domain.ErrInvoicePaid
	}

	base := time.Now().UTC()
	if inv.CancelTime != nil && inv.CancelTime.After(base) {
		base = *inv.CancelTime
	}
	t := base.AddDate(0, 0, days)
	inv.CancelTime = &t
	inv.UpdatedAt = time.Now().UTC()

	if err := uc.invoiceRepo.Update(txCtx, tx, inv); err != nil {
		return err
	}
	if err := uc.historyRepo.AppendHistory(txCtx, tx, inv.ID, fmt.Sprintf("Auto-cancel time extended by %d days to %s", days, t.Format(time.RFC3339))); err != nil {
		return err
	}
	return tx.Commit(txCtx)
}

// CancelExpired cancels every invoice past its auto-cancel deadline.
// Invoked by the external scheduler; safe to re-run.
func (uc *InvoiceUseCase) CancelExpired(ctx context.Context) (int, error) {
	expired, err := uc.invoiceRepo.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	canceled := 0
	for _, inv := range expired {
		err := uc.Cancel(ctx, inv.ID, "Invoice was automatically canceled because payment was not received on time.")
		if err != nil {
			return canceled, fmt.Errorf("cancel invoice %s: %w", inv.ID, err)
		}
		canceled++
	}
	return canceled, nil
}

// SendReminders queues one overdue reminder per invoice past its due date.
// Invoked by the external scheduler; safe to re-run.
func (uc *InvoiceUseCase) SendReminders(ctx context.Context) (int, error) {
	due, err := uc.invoiceRepo.ListDueReminders(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, inv := range due {
		if inv.RecipientEmail == "" {
			continue
		}
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		err := func() error {
			tx, err := uc.txManager.Begin(txCtx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback(txCtx) }()

			locked, err := uc.invoiceRepo.GetByIDForUpdate(txCtx, tx, inv.ID)
			if err != nil {
				return err
			}
			if locked.IsPaid() || locked.Deleted || locked.RemindersSent > 0 {
				return nil
			}

			locked.RemindersSent++
			locked.UpdatedAt = time.Now().UTC()
			if err := uc.invoiceRepo.Update(txCtx, tx, locked); err != nil {
				return err
			}
			if err := uc.mailQueue.CreateTx(txCtx, tx, &domain.QueuedMail{
				ID:        uc.idGen.Generate(),
				Recipient: locked.RecipientEmail,
				Subject:   fmt.Sprintf("Reminder: invoice #%d is overdue", locked.Number),
				Template:  domain.MailTemplateReminder,
				Data:      map[string]any{"invoice_id": locked.ID, "title": locked.Title, "due_date": locked.DueDate},
				CreatedAt: time.Now().UTC(),
			}); err != nil {
				return err
			}
			if err := uc.historyRepo.AppendHistory(txCtx, tx, locked.ID, "Payment reminder sent"); err != nil {
				return err
			}
			sent++
			return tx.Commit(txCtx)
		}()
		cancel()
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// Get returns an invoice by id.
func (uc *InvoiceUseCase) Get(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return uc.invoiceRepo.GetByID(ctx, invoiceID)
}

// List returns invoices for the admin API.
func (uc *InvoiceUseCase) List(ctx context.Context, limit, offset int) ([]*domain.Invoice, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return uc.invoiceRepo.List(ctx, limit, offset)
}

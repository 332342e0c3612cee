package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/infrastructure/metrics"
	"github.com/eventfin/fincore/internal/provider"
)

// ProviderResolver is the slice of the provider registry the refund
// orchestrator needs.
type ProviderResolver interface {
	Resolve(name string) (provider.Wrapper, bool)
}

// RefundUseCase manages the registered -> issued -> completed lifecycle of
// money returned to payers.
type RefundUseCase struct {
	txManager   TransactionManager
	invoiceRepo InvoiceRepository
	refundRepo  RefundRepository
	historyRepo HistoryRepository
	mailQueue   MailQueue
	ledger      *LedgerUseCase
	dispatcher  ProcessorDispatcher
	providers   ProviderResolver
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	alertRecipient string
	siteBase       string
}

// NewRefundUseCase creates a new RefundUseCase.
func NewRefundUseCase(
	txManager TransactionManager,
	invoiceRepo InvoiceRepository,
	refundRepo RefundRepository,
	historyRepo HistoryRepository,
	mailQueue MailQueue,
	ledger *LedgerUseCase,
	dispatcher ProcessorDispatcher,
	providers ProviderResolver,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
	alertRecipient string,
	siteBase string,
) *RefundUseCase {
	return &RefundUseCase{
		txManager:      txManager,
		invoiceRepo:    invoiceRepo,
		refundRepo:     refundRepo,
		historyRepo:    historyRepo,
		mailQueue:      mailQueue,
		ledger:         ledger,
		dispatcher:     dispatcher,
		providers:      providers,
		idGen:          idGen,
		metrics:        metrics,
		logger:         logger,
		alertRecipient: alertRecipient,
		siteBase:       siteBase,
	}
}

// RequestRefundInput describes a new refund request.
type RequestRefundInput struct {
	InvoiceID string
	Reason    string
	Amount    decimal.Decimal
	VATAmount decimal.Decimal
	VATRate   decimal.Decimal
}

// RequestRefund validates and registers a refund. Issuance is always
// asynchronous: the scheduler-driven queue keeps user-facing requests
// fast and keeps external API calls out of this transaction.
func (uc *RefundUseCase) RequestRefund(ctx context.Context, input RequestRefundInput) (*domain.InvoiceRefund, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	inv, err := uc.invoiceRepo.GetByIDForUpdate(txCtx, tx, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.IsPaid() {
		return nil, domain.ErrInvoiceNotPaid
	}
	if err := domain.ValidateRefundAmounts(inv, input.Amount, input.VATAmount); err != nil {
		return nil, err
	}

	refund := &domain.InvoiceRefund{
		ID:         uc.idGen.Generate(),
		InvoiceID:  inv.ID,
		Reason:     input.Reason,
		Amount:     input.Amount,
		VATAmount:  input.VATAmount,
		VATRate:    input.VATRate,
		Registered: time.Now().UTC(),
	}
	if err := uc.refundRepo.Create(txCtx, tx, refund); err != nil {
		return nil, err
	}
	if err := uc.historyRepo.AppendHistory(txCtx, tx, inv.ID, fmt.Sprintf("Refund of %s registered: %s", refund.FullAmount(), input.Reason)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.RefundsRequested.Inc()
	}
	return refund, nil
}

// ProcessQueued issues every refund still waiting on the provider API.
// The scan runs outside any transaction; each refund is re-locked and
// re-validated inside its own transaction because scheduler ticks can
// overlap. A provider that lost its autorefund capability since the
// request was queued is an operator error and is surfaced, not dropped.
// API failures leave the refund queued for the next run.
func (uc *RefundUseCase) ProcessQueued(ctx context.Context) (int, error) {
	ids, err := uc.refundRepo.ListUnissued(ctx)
	if err != nil {
		return 0, err
	}

	issued := 0
	var errs []error
	for _, id := range ids {
		ok, err := uc.issueOne(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("refund %s: %w", id, err))
			continue
		}
		if ok {
			issued++
		}
	}
	return issued, errors.Join(errs...)
}

func (uc *RefundUseCase) issueOne(ctx context.Context, refundID string) (bool, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout+ProviderCallTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	refund, err := uc.refundRepo.GetByIDForUpdate(txCtx, tx, refundID)
	if err != nil {
		return false, err
	}
	if refund.Issued != nil {
		// Another tick got here first.
		return false, nil
	}

	inv, err := uc.invoiceRepo.GetByID(txCtx, refund.InvoiceID)
	if err != nil {
		return false, err
	}

	w, ok := uc.providers.Resolve(inv.PaidUsing)
	if !ok || !w.OK {
		return false, fmt.Errorf("%w: %s", provider.ErrNotFound, inv.PaidUsing)
	}
	refunder, capable := w.Provider.(provider.AutoRefunder)
	if !capable {
		// Queued against a provider that cannot refund: configuration
		// changed under us. Alert the operator and surface it.
		_ = uc.mailQueue.Create(ctx, &domain.QueuedMail{
			ID:        uc.idGen.Generate(),
			Recipient: uc.alertRecipient,
			Subject:   fmt.Sprintf("Refund %s cannot be issued", refundID),
			Template:  domain.MailTemplateRefundFailure,
			Data: map[string]any{
				"refund_id":  refundID,
				"invoice_id": inv.ID,
				"provider":   inv.PaidUsing,
			},
			CreatedAt: time.Now().UTC(),
		})
		return false, fmt.Errorf("%w: %s", domain.ErrProviderNotRefundable, inv.PaidUsing)
	}

	callCtx, callCancel := context.WithTimeout(txCtx, ProviderCallTimeout)
	reference, err := refunder.AutoRefund(callCtx, inv, refund)
	callCancel()
	if err != nil {
		// Leave it queued; the next scheduler run retries.
		uc.logger.Warn().Err(err).Str("refund_id", refundID).Str("provider", inv.PaidUsing).
			Msg("refund issuance failed, leaving queued")
		return false, nil
	}

	now := time.Now().UTC()
	refund.Issued = &now
	refund.PaymentReference = reference
	if err := uc.refundRepo.Update(txCtx, tx, refund); err != nil {
		return false, err
	}
	if err := uc.historyRepo.AppendHistory(txCtx, tx, inv.ID, fmt.Sprintf("Refund of %s issued via %s (%s)", refund.FullAmount(), inv.PaidUsing, reference)); err != nil {
		return false, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return false, err
	}

	if uc.metrics != nil {
		uc.metrics.RefundsIssued.Inc()
	}
	uc.logger.Info().Str("refund_id", refundID).Str("invoice_id", inv.ID).Msg("refund issued")
	return true, nil
}

// FlagStalled alerts on refunds issued but unconfirmed past the grace
// window. Completion is provider-driven and cannot be forced, so this
// never retries anything.
func (uc *RefundUseCase) FlagStalled(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-StalledRefundGrace)
	stalled, err := uc.refundRepo.ListStalled(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if uc.metrics != nil {
		uc.metrics.RefundsStalled.Set(float64(len(stalled)))
	}
	if len(stalled) == 0 {
		return 0, nil
	}

	refs := make([]string, 0, len(stalled))
	for _, r := range stalled {
		refs = append(refs, fmt.Sprintf("refund %s for invoice %s (%s)", r.ID, r.InvoiceID, r.FullAmount()))
	}
	if err := uc.mailQueue.Create(ctx, &domain.QueuedMail{
		ID:        uc.idGen.Generate(),
		Recipient: uc.alertRecipient,
		Subject:   "Stalled invoice refunds",
		Template:  domain.MailTemplateStalledRefunds,
		Data:      map[string]any{"refunds": refs},
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return 0, err
	}
	return len(stalled), nil
}

// CompleteRefundInput is the provider-confirmation of a settled refund,
// arriving via webhook or poll.
type CompleteRefundInput struct {
	RefundID      string
	Fee           decimal.Decimal
	IncomeAccount int
	FeeAccount    int
	ExtraURLs     []string
	Method        string
}

// CompleteRefund stamps the refund completed and posts the reversing
// ledger entry. Idempotent: a refund already completed is a safe no-op,
// because providers redeliver confirmations.
func (uc *RefundUseCase) CompleteRefund(ctx context.Context, input CompleteRefundInput) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	refund, err := uc.refundRepo.GetByIDForUpdate(txCtx, tx, input.RefundID)
	if err != nil {
		return err
	}
	if refund.Completed != nil {
		return nil
	}

	inv, err := uc.invoiceRepo.GetByID(txCtx, refund.InvoiceID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if refund.Issued == nil {
		// Manual bank refunds are confirmed without ever being issued
		// through an API; both stamps land together.
		refund.Issued = &now
	}
	refund.Completed = &now
	if err := uc.refundRepo.Update(txCtx, tx, refund); err != nil {
		return err
	}

	if err := uc.postRefundEntry(txCtx, tx, inv, refund, input, now); err != nil {
		return err
	}

	if inv.Processor != "" {
		if err := uc.dispatcher.Dispatch(txCtx, domain.ProcessorEvent{
			Kind:    domain.RefundCompleted,
			Invoice: inv,
			Refund:  refund,
		}); err != nil {
			return fmt.Errorf("processor failed on refund completion: %w", err)
		}
	}

	if err := uc.historyRepo.AppendHistory(txCtx, tx, inv.ID, fmt.Sprintf("Refund of %s completed via %s", refund.FullAmount(), input.Method)); err != nil {
		return err
	}
	if err := uc.historyRepo.AppendLog(txCtx, tx, fmt.Sprintf("Completed refund %s of %s for invoice #%d", refund.ID, refund.FullAmount(), inv.Number)); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.RefundsCompleted.Inc()
	}
	uc.logger.Info().Str("refund_id", refund.ID).Str("invoice_id", inv.ID).Msg("refund completed")
	return nil
}

// postRefundEntry mirrors the payment posting in reverse: the full amount
// leaves the income account, the provider fee lands on the fee account,
// and the invoice's accounting coordinates balance the entry when known.
func (uc *RefundUseCase) postRefundEntry(ctx context.Context, tx Transaction, inv *domain.Invoice, refund *domain.InvoiceRefund, input CompleteRefundInput, now time.Time) error {
	full := refund.FullAmount()
	ref := fmt.Sprintf("Refund for invoice #%d: %s", inv.Number, inv.Title)

	items := []domain.EntryItem{
		{
			AccountNumber: input.IncomeAccount,
			Description:   ref,
			Amount:        full.Neg(),
		},
	}
	if input.Fee.IsPositive() {
		items = append(items, domain.EntryItem{
			AccountNumber: input.FeeAccount,
			Description:   fmt.Sprintf("Refund fee for invoice #%d", inv.Number),
			Amount:        input.Fee,
		})
	}

	leaveOpen := true
	if inv.AccountingAccount != 0 {
		items = append(items, domain.EntryItem{
			AccountNumber: inv.AccountingAccount,
			Description:   ref,
			Amount:        full.Sub(input.Fee),
			ObjectName:    inv.AccountingObject,
		})
		leaveOpen = false
	}

	urls := append([]string{fmt.Sprintf("%s/invoices/%s/", uc.siteBase, inv.ID)}, input.ExtraURLs...)

	_, err := uc.ledger.CreateEntryInTx(ctx, tx, CreateEntryInput{
		Date:      now,
		Items:     items,
		LeaveOpen: leaveOpen,
		URLs:      urls,
	})
	return err
}

// Get returns a refund by id.
func (uc *RefundUseCase) Get(ctx context.Context, refundID string) (*domain.InvoiceRefund, error) {
	return uc.refundRepo.GetByID(ctx, refundID)
}

// ListByInvoice returns the refunds belonging to an invoice.
func (uc *RefundUseCase) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceRefund, error) {
	return uc.refundRepo.ListByInvoice(ctx, invoiceID)
}

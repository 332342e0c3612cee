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
)

// PaymentUseCase is the reconciliation engine: it matches inbound payment
// signals to invoices and records the fact exactly once.
type PaymentUseCase struct {
	txManager   TransactionManager
	invoiceRepo InvoiceRepository
	bankTxRepo  BankTransactionRepository
	historyRepo HistoryRepository
	mailQueue   MailQueue
	ledger      *LedgerUseCase
	renderer    Renderer
	dispatcher  ProcessorDispatcher
	matcher     *TransTextMatcher
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
	logger      zerolog.Logger

	siteBase string
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	txManager TransactionManager,
	invoiceRepo InvoiceRepository,
	bankTxRepo BankTransactionRepository,
	historyRepo HistoryRepository,
	mailQueue MailQueue,
	ledger *LedgerUseCase,
	renderer Renderer,
	dispatcher ProcessorDispatcher,
	matcher *TransTextMatcher,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
	siteBase string,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:   txManager,
		invoiceRepo: invoiceRepo,
		bankTxRepo:  bankTxRepo,
		historyRepo: historyRepo,
		mailQueue:   mailQueue,
		ledger:      ledger,
		renderer:    renderer,
		dispatcher:  dispatcher,
		matcher:     matcher,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
		logger:      logger,
		siteBase:    siteBase,
	}
}

// ProcessPaymentInput describes one inbound settlement notification.
type ProcessPaymentInput struct {
	InvoiceID string
	Amount    decimal.Decimal
	// TransDetails is persisted as the invoice's payment details. It must
	// encode enough to re-locate the originating transaction, e.g. a
	// provider-prefixed transaction id; reversal tooling parses it back.
	TransDetails string
	TransCost    decimal.Decimal
	// IncomeAccount receives amount minus cost; CostAccount carries the
	// provider fee when there is one.
	IncomeAccount int
	CostAccount   int
	ExtraURLs     []string
	Method        string
}

// ProcessPaymentForInvoice matches a settlement to an invoice. The paid
// flag, processor callback, receipt, ledger posting and history all happen
// in one transaction; any failure rolls the whole thing back so a retry
// starts from a clean slate. The paidAt==nil check inside the same
// transaction that sets it is the idempotency guard: a duplicated webhook
// or re-run polling job gets PaymentAlreadyPaid and changes nothing.
func (uc *PaymentUseCase) ProcessPaymentForInvoice(ctx context.Context, input ProcessPaymentInput) (domain.PaymentResult, error) {
	var result domain.PaymentResult

	err := uc.retrier.Retry(ctx, func() error {
		var err error
		result, err = uc.processOnce(ctx, input)
		return err
	})
	if err != nil {
		return domain.PaymentUnknown, err
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsProcessed.WithLabelValues(result.String()).Inc()
		if result == domain.PaymentOK {
			amt, _ := input.Amount.Float64()
			uc.metrics.PaymentAmount.Observe(amt)
		}
	}
	return result, nil
}

func (uc *PaymentUseCase) processOnce(ctx context.Context, input ProcessPaymentInput) (domain.PaymentResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return domain.PaymentUnknown, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	inv, err := uc.invoiceRepo.GetByIDForUpdate(txCtx, tx, input.InvoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			uc.logger.Warn().Str("invoice_id", input.InvoiceID).Msg("payment for unknown invoice")
			return domain.PaymentNotFound, nil
		}
		return domain.PaymentUnknown, err
	}

	if !inv.Finalized {
		uc.logger.Warn().Str("invoice_id", inv.ID).Msg("payment for invoice that was never sent")
		return domain.PaymentNotSent, nil
	}
	if inv.IsPaid() {
		uc.logger.Info().Str("invoice_id", inv.ID).Msg("invoice already paid, ignoring duplicate settlement")
		return domain.PaymentAlreadyPaid, nil
	}
	if inv.Deleted {
		uc.logger.Warn().Str("invoice_id", inv.ID).Msg("payment for canceled invoice")
		return domain.PaymentDeleted, nil
	}
	if !input.Amount.Equal(inv.TotalAmount) {
		uc.logger.Warn().
			Str("invoice_id", inv.ID).
			Str("expected", inv.TotalAmount.String()).
			Str("received", input.Amount.String()).
			Msg("payment amount mismatch, leaving invoice unpaid for manual review")
		return domain.PaymentInvalidAmount, nil
	}

	now := time.Now().UTC()
	inv.PaidAt = &now
	inv.PaymentDetails = input.TransDetails
	inv.PaidUsing = input.Method
	inv.UpdatedAt = now
	if err := uc.invoiceRepo.Update(txCtx, tx, inv); err != nil {
		return domain.PaymentUnknown, err
	}

	if inv.Processor != "" {
		if err := uc.dispatcher.Dispatch(txCtx, domain.ProcessorEvent{
			Kind:    domain.PaymentConfirmed,
			Invoice: inv,
		}); err != nil {
			// The rollback leaves the invoice unpaid, so the caller can
			// retry without having partially committed.
			uc.logger.Error().Err(err).Str("invoice_id", inv.ID).Str("processor", inv.Processor).
				Msg("invoice processor failed, aborting payment")
			_ = tx.Rollback(txCtx)
			return domain.PaymentProcessorFail, nil
		}
	}

	rows, err := uc.invoiceRepo.GetRows(txCtx, tx, inv.ID)
	if err != nil {
		return domain.PaymentUnknown, err
	}
	receipt, err := uc.renderer.RenderReceipt(inv, rows)
	if err != nil {
		return domain.PaymentUnknown, fmt.Errorf("render receipt: %w", err)
	}
	if err := uc.invoiceRepo.SetReceiptPDF(txCtx, tx, inv.ID, receipt); err != nil {
		return domain.PaymentUnknown, err
	}

	if err := uc.postPaymentEntry(txCtx, tx, inv, input, now); err != nil {
		return domain.PaymentUnknown, err
	}

	if err := uc.historyRepo.AppendHistory(txCtx, tx, inv.ID, fmt.Sprintf("Payment of %s processed (%s)", input.Amount, input.TransDetails)); err != nil {
		return domain.PaymentUnknown, err
	}
	if err := uc.historyRepo.AppendLog(txCtx, tx, fmt.Sprintf("Processed payment of %s for invoice #%d (%s)", inv.TotalAmount, inv.Number, inv.Title)); err != nil {
		return domain.PaymentUnknown, err
	}

	if inv.RecipientEmail != "" {
		if err := uc.mailQueue.CreateTx(txCtx, tx, &domain.QueuedMail{
			ID:        uc.idGen.Generate(),
			Recipient: inv.RecipientEmail,
			Subject:   fmt.Sprintf("Receipt for invoice #%d", inv.Number),
			Template:  domain.MailTemplateReceipt,
			Data:      map[string]any{"invoice_id": inv.ID, "title": inv.Title, "amount": inv.TotalAmount.String()},
			CreatedAt: now,
		}); err != nil {
			return domain.PaymentUnknown, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return domain.PaymentUnknown, err
	}

	uc.logger.Info().
		Str("invoice_id", inv.ID).
		Int64("invoice_number", inv.Number).
		Str("amount", input.Amount.String()).
		Str("method", input.Method).
		Msg("payment matched")

	return domain.PaymentOK, nil
}

// postPaymentEntry writes the ledger side of a matched payment: the income
// account receives amount minus cost, the fee goes to the cost account,
// and when the invoice carries accounting coordinates a closing row
// balances the entry. Without coordinates the entry is deliberately left
// open for manual completion.
func (uc *PaymentUseCase) postPaymentEntry(ctx context.Context, tx Transaction, inv *domain.Invoice, input ProcessPaymentInput, now time.Time) error {
	ref := fmt.Sprintf("Invoice #%d: %s", inv.Number, inv.Title)
	items := []domain.EntryItem{
		{
			AccountNumber: input.IncomeAccount,
			Description:   ref,
			Amount:        input.Amount.Sub(input.TransCost),
		},
	}
	if input.TransCost.IsPositive() {
		items = append(items, domain.EntryItem{
			AccountNumber: input.CostAccount,
			Description:   fmt.Sprintf("Transaction cost for invoice #%d", inv.Number),
			Amount:        input.TransCost,
		})
	}

	leaveOpen := true
	if inv.AccountingAccount != 0 {
		items = append(items, domain.EntryItem{
			AccountNumber: inv.AccountingAccount,
			Description:   ref,
			Amount:        input.Amount.Neg(),
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

// BankPaymentInput is a free-text bank statement row.
type BankPaymentInput struct {
	TransText string
	Sender    string
	Amount    decimal.Decimal
	// TransDetails defaults to TransText when empty.
	TransDetails  string
	TransCost     decimal.Decimal
	IncomeAccount int
	CostAccount   int
	Method        string
	CanReturn     bool
}

// ProcessBankPayment reconciles a free-text statement line. When the text
// does not match the invoice reference convention, or the referenced
// invoice cannot accept the amount, the row is parked as a pending bank
// transaction for manual review instead of being dropped.
func (uc *PaymentUseCase) ProcessBankPayment(ctx context.Context, input BankPaymentInput) (domain.PaymentResult, error) {
	details := input.TransDetails
	if details == "" {
		details = input.TransText
	}

	number, ok := uc.matcher.Match(input.TransText)
	if !ok {
		uc.logger.Info().Str("text", input.TransText).Msg("could not match transaction text")
		if err := uc.parkBankTransaction(ctx, input); err != nil {
			return domain.PaymentUnknown, err
		}
		return domain.PaymentNotFound, nil
	}

	inv, err := uc.invoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			uc.logger.Info().Int64("invoice_number", number).Msg("no invoice behind matched transaction text")
			if err := uc.parkBankTransaction(ctx, input); err != nil {
				return domain.PaymentUnknown, err
			}
			return domain.PaymentNotFound, nil
		}
		return domain.PaymentUnknown, err
	}

	result, err := uc.ProcessPaymentForInvoice(ctx, ProcessPaymentInput{
		InvoiceID:     inv.ID,
		Amount:        input.Amount,
		TransDetails:  details,
		TransCost:     input.TransCost,
		IncomeAccount: input.IncomeAccount,
		CostAccount:   input.CostAccount,
		Method:        input.Method,
	})
	if err != nil {
		return result, err
	}

	if result == domain.PaymentInvalidAmount || result == domain.PaymentNotSent || result == domain.PaymentDeleted {
		if err := uc.parkBankTransaction(ctx, input); err != nil {
			return domain.PaymentUnknown, err
		}
	}
	return result, nil
}

func (uc *PaymentUseCase) parkBankTransaction(ctx context.Context, input BankPaymentInput) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.bankTxRepo.Create(txCtx, tx, &domain.PendingBankTransaction{
		ID:        uc.idGen.Generate(),
		Method:    input.Method,
		Amount:    input.Amount,
		TransText: input.TransText,
		Sender:    input.Sender,
		CanReturn: input.CanReturn,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	return tx.Commit(txCtx)
}

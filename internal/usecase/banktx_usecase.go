package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
)

// BankTransactionUseCase manages the holding pen for bank transfers that
// could not be matched to an invoice automatically.
type BankTransactionUseCase struct {
	txManager  TransactionManager
	bankTxRepo BankTransactionRepository
	payments   *PaymentUseCase
	mailQueue  MailQueue
	idGen      IDGenerator
	logger     zerolog.Logger

	alertRecipient string
}

// NewBankTransactionUseCase creates a new BankTransactionUseCase.
func NewBankTransactionUseCase(
	txManager TransactionManager,
	bankTxRepo BankTransactionRepository,
	payments *PaymentUseCase,
	mailQueue MailQueue,
	idGen IDGenerator,
	logger zerolog.Logger,
	alertRecipient string,
) *BankTransactionUseCase {
	return &BankTransactionUseCase{
		txManager:      txManager,
		bankTxRepo:     bankTxRepo,
		payments:       payments,
		mailQueue:      mailQueue,
		idGen:          idGen,
		logger:         logger,
		alertRecipient: alertRecipient,
	}
}

// List returns pending bank transactions awaiting operator action.
func (uc *BankTransactionUseCase) List(ctx context.Context, limit, offset int) ([]*domain.PendingBankTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return uc.bankTxRepo.List(ctx, limit, offset)
}

// Get returns a single pending bank transaction.
func (uc *BankTransactionUseCase) Get(ctx context.Context, id string) (*domain.PendingBankTransaction, error) {
	return uc.bankTxRepo.GetByID(ctx, id)
}

// MatchInput ties a pending transaction to an invoice chosen by an operator.
type MatchInput struct {
	TransactionID string
	InvoiceID     string
	TransCost     decimal.Decimal
	IncomeAccount int
	CostAccount   int
}

// Match applies a pending transaction to an invoice as a payment and, on
// success, removes the pending row. The payment itself runs through the
// same reconciliation path as automatic matches.
func (uc *BankTransactionUseCase) Match(ctx context.Context, input MatchInput) (domain.PaymentResult, error) {
	pending, err := uc.bankTxRepo.GetByID(ctx, input.TransactionID)
	if err != nil {
		return domain.PaymentUnknown, err
	}

	details := fmt.Sprintf("Bank transfer: %s", pending.TransText)
	if pending.Sender != "" {
		details = fmt.Sprintf("%s (from %s)", details, pending.Sender)
	}

	result, err := uc.payments.ProcessPaymentForInvoice(ctx, ProcessPaymentInput{
		InvoiceID:     input.InvoiceID,
		Amount:        pending.Amount,
		TransDetails:  details,
		TransCost:     input.TransCost,
		IncomeAccount: input.IncomeAccount,
		CostAccount:   input.CostAccount,
		Method:        pending.Method,
	})
	if err != nil {
		return result, err
	}
	if result != domain.PaymentOK {
		return result, nil
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()
	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()
	if err := uc.bankTxRepo.Delete(txCtx, tx, pending.ID); err != nil {
		return result, err
	}
	if err := tx.Commit(txCtx); err != nil {
		return result, err
	}

	uc.logger.Info().Str("transaction_id", pending.ID).Str("invoice_id", input.InvoiceID).
		Msg("pending bank transaction matched")
	return result, nil
}

// Discard drops a pending transaction after an operator has handled it
// outside the system, typically by returning the money.
func (uc *BankTransactionUseCase) Discard(ctx context.Context, id string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if _, err := uc.bankTxRepo.GetByID(txCtx, id); err != nil {
		return err
	}
	if err := uc.bankTxRepo.Delete(txCtx, tx, id); err != nil {
		return err
	}
	return tx.Commit(txCtx)
}

// SendPendingReminders alerts the operator about transactions that have
// been sitting unmatched past the reminder age.
func (uc *BankTransactionUseCase) SendPendingReminders(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-PendingBankTxReminderAge)
	stale, err := uc.bankTxRepo.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	rows := make([]string, 0, len(stale))
	for _, t := range stale {
		rows = append(rows, fmt.Sprintf("%s %s %q from %s (%s)", t.CreatedAt.Format("2006-01-02"), t.Amount, t.TransText, t.Sender, t.Method))
	}
	if err := uc.mailQueue.Create(ctx, &domain.QueuedMail{
		ID:        uc.idGen.Generate(),
		Recipient: uc.alertRecipient,
		Subject:   "Pending bank transactions need attention",
		Template:  domain.MailTemplatePendingBankTx,
		Data:      map[string]any{"transactions": rows},
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return 0, err
	}
	return len(stale), nil
}

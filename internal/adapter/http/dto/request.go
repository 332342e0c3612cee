package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// InvoiceRowRequest is one line item of a new invoice.
type InvoiceRowRequest struct {
	Text    string          `json:"text"`
	Amount  decimal.Decimal `json:"amount"`
	Count   int             `json:"count"`
	VATRate decimal.Decimal `json:"vat_rate"`
}

// CreateInvoiceRequest represents a request to create an invoice.
type CreateInvoiceRequest struct {
	RecipientUserID  string `json:"recipient_user_id"`
	RecipientName    string `json:"recipient_name"`
	RecipientEmail   string `json:"recipient_email"`
	RecipientAddress string `json:"recipient_address,omitempty"`

	Title       string     `json:"title"`
	InvoiceDate time.Time  `json:"invoice_date"`
	DueDate     time.Time  `json:"due_date"`
	CancelTime  *time.Time `json:"cancel_time,omitempty"`

	Rows []InvoiceRowRequest `json:"rows"`

	Processor   string `json:"processor,omitempty"`
	ProcessorID string `json:"processor_id,omitempty"`

	AccountingAccount int    `json:"accounting_account,omitempty"`
	AccountingObject  string `json:"accounting_object,omitempty"`

	AllowedMethods []string `json:"allowed_methods,omitempty"`

	Finalize bool `json:"finalize,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateInvoiceRequest) ToUseCaseInput() usecase.CreateInvoiceInput {
	rows := make([]usecase.RowInput, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = usecase.RowInput{
			Text:    row.Text,
			Amount:  row.Amount,
			Count:   row.Count,
			VATRate: row.VATRate,
		}
	}

	return usecase.CreateInvoiceInput{
		RecipientUserID:   r.RecipientUserID,
		RecipientName:     r.RecipientName,
		RecipientEmail:    r.RecipientEmail,
		RecipientAddress:  r.RecipientAddress,
		Title:             r.Title,
		InvoiceDate:       r.InvoiceDate,
		DueDate:           r.DueDate,
		CancelTime:        r.CancelTime,
		Rows:              rows,
		Processor:         r.Processor,
		ProcessorID:       r.ProcessorID,
		AccountingAccount: r.AccountingAccount,
		AccountingObject:  r.AccountingObject,
		AllowedMethods:    r.AllowedMethods,
		Finalize:          r.Finalize,
	}
}

// CancelInvoiceRequest carries the reason recorded with a cancellation.
type CancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

// ExtendInvoiceRequest pushes the auto-cancel deadline forward.
type ExtendInvoiceRequest struct {
	Days int `json:"days"`
}

// EntryItemRequest is one posting of a journal entry.
type EntryItemRequest struct {
	AccountNumber int             `json:"account_number"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	ObjectName    string          `json:"object_name,omitempty"`
}

// ToDomain converts request items to domain entry items.
func (r EntryItemRequest) ToDomain() domain.EntryItem {
	return domain.EntryItem{
		AccountNumber: r.AccountNumber,
		Description:   r.Description,
		Amount:        r.Amount,
		ObjectName:    r.ObjectName,
	}
}

// CreateEntryRequest represents a request to create a journal entry.
type CreateEntryRequest struct {
	Date      time.Time          `json:"date"`
	Items     []EntryItemRequest `json:"items"`
	LeaveOpen bool               `json:"leave_open,omitempty"`
	URLs      []string           `json:"urls,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput() usecase.CreateEntryInput {
	items := make([]domain.EntryItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = item.ToDomain()
	}

	return usecase.CreateEntryInput{
		Date:      r.Date,
		Items:     items,
		LeaveOpen: r.LeaveOpen,
		URLs:      r.URLs,
	}
}

// CloseEntryRequest carries the completing postings for an open entry.
type CloseEntryRequest struct {
	Items []EntryItemRequest `json:"items"`
}

// ToDomainItems converts the completing postings.
func (r *CloseEntryRequest) ToDomainItems() []domain.EntryItem {
	items := make([]domain.EntryItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = item.ToDomain()
	}
	return items
}

// RequestRefundRequest registers a refund against a paid invoice.
type RequestRefundRequest struct {
	InvoiceID string          `json:"invoice_id"`
	Reason    string          `json:"reason"`
	Amount    decimal.Decimal `json:"amount"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	VATRate   decimal.Decimal `json:"vat_rate"`
}

// ToUseCaseInput converts to use case input.
func (r *RequestRefundRequest) ToUseCaseInput() usecase.RequestRefundInput {
	return usecase.RequestRefundInput{
		InvoiceID: r.InvoiceID,
		Reason:    r.Reason,
		Amount:    r.Amount,
		VATAmount: r.VATAmount,
		VATRate:   r.VATRate,
	}
}

// MatchBankTransactionRequest ties a pending bank row to an invoice.
type MatchBankTransactionRequest struct {
	InvoiceID     string          `json:"invoice_id"`
	TransCost     decimal.Decimal `json:"trans_cost"`
	IncomeAccount int             `json:"income_account"`
	CostAccount   int             `json:"cost_account"`
}

// BankStatementRowRequest is one free-text statement line submitted for
// automatic reconciliation.
type BankStatementRowRequest struct {
	TransText string          `json:"trans_text"`
	Sender    string          `json:"sender"`
	Amount    decimal.Decimal `json:"amount"`
	CanReturn bool            `json:"can_return,omitempty"`
}

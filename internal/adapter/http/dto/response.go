package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
)

// InvoiceResponse represents an invoice in API responses. The PDF blobs
// are served from their own endpoints and never inlined.
type InvoiceResponse struct {
	ID     string `json:"id"`
	Number int64  `json:"number"`

	RecipientUserID  string `json:"recipient_user_id"`
	RecipientName    string `json:"recipient_name"`
	RecipientEmail   string `json:"recipient_email"`
	RecipientAddress string `json:"recipient_address,omitempty"`

	Title       string     `json:"title"`
	InvoiceDate time.Time  `json:"invoice_date"`
	DueDate     time.Time  `json:"due_date"`
	CancelTime  *time.Time `json:"cancel_time,omitempty"`

	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalVAT    decimal.Decimal `json:"total_vat"`

	Finalized      bool   `json:"finalized"`
	Deleted        bool   `json:"deleted"`
	DeletionReason string `json:"deletion_reason,omitempty"`

	PaidAt         *time.Time `json:"paid_at,omitempty"`
	PaymentDetails string     `json:"payment_details,omitempty"`
	PaidUsing      string     `json:"paid_using,omitempty"`

	Processor   string `json:"processor,omitempty"`
	ProcessorID string `json:"processor_id,omitempty"`

	AccountingAccount int    `json:"accounting_account,omitempty"`
	AccountingObject  string `json:"accounting_object,omitempty"`

	RemindersSent  int      `json:"reminders_sent"`
	AllowedMethods []string `json:"allowed_methods,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceFromDomain converts a domain invoice to a response.
func InvoiceFromDomain(i *domain.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:                i.ID,
		Number:            i.Number,
		RecipientUserID:   i.RecipientUserID,
		RecipientName:     i.RecipientName,
		RecipientEmail:    i.RecipientEmail,
		RecipientAddress:  i.RecipientAddress,
		Title:             i.Title,
		InvoiceDate:       i.InvoiceDate,
		DueDate:           i.DueDate,
		CancelTime:        i.CancelTime,
		TotalAmount:       i.TotalAmount,
		TotalVAT:          i.TotalVAT,
		Finalized:         i.Finalized,
		Deleted:           i.Deleted,
		DeletionReason:    i.DeletionReason,
		PaidAt:            i.PaidAt,
		PaymentDetails:    i.PaymentDetails,
		PaidUsing:         i.PaidUsing,
		Processor:         i.Processor,
		ProcessorID:       i.ProcessorID,
		AccountingAccount: i.AccountingAccount,
		AccountingObject:  i.AccountingObject,
		RemindersSent:     i.RemindersSent,
		AllowedMethods:    i.AllowedMethods,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// InvoicesFromDomain converts domain invoices to responses.
func InvoicesFromDomain(invoices []*domain.Invoice) []*InvoiceResponse {
	result := make([]*InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		result[i] = InvoiceFromDomain(inv)
	}
	return result
}

// ListInvoicesResponse wraps an invoice listing.
type ListInvoicesResponse struct {
	Invoices []*InvoiceResponse `json:"invoices"`
	Total    int64              `json:"total"`
}

// EntryResponse represents a journal entry in API responses.
type EntryResponse struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Seq       int       `json:"seq"`
	Date      time.Time `json:"date"`
	Closed    bool      `json:"closed"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryFromDomain converts a domain journal entry to a response.
func EntryFromDomain(e *domain.JournalEntry) *EntryResponse {
	return &EntryResponse{
		ID:        e.ID,
		Year:      e.Year,
		Seq:       e.Seq,
		Date:      e.Date,
		Closed:    e.Closed,
		CreatedAt: e.CreatedAt,
	}
}

// EntriesFromDomain converts domain journal entries to responses.
func EntriesFromDomain(entries []*domain.JournalEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// PaymentMethodResponse is one payment method available for an invoice.
type PaymentMethodResponse struct {
	Name          string `json:"name"`
	CanAutoRefund bool   `json:"can_auto_refund"`
}

// ListPaymentMethodsResponse lists the methods an invoice may be paid with.
type ListPaymentMethodsResponse struct {
	Methods []PaymentMethodResponse `json:"methods"`
}

// BalanceResponse carries a single account balance.
type BalanceResponse struct {
	AccountNumber int             `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}

// RefundResponse represents a refund in API responses.
type RefundResponse struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`

	Reason    string          `json:"reason"`
	Amount    decimal.Decimal `json:"amount"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	VATRate   decimal.Decimal `json:"vat_rate"`

	Registered time.Time  `json:"registered"`
	Issued     *time.Time `json:"issued,omitempty"`
	Completed  *time.Time `json:"completed,omitempty"`

	PaymentReference string `json:"payment_reference,omitempty"`
}

// RefundFromDomain converts a domain refund to a response.
func RefundFromDomain(r *domain.InvoiceRefund) *RefundResponse {
	return &RefundResponse{
		ID:               r.ID,
		InvoiceID:        r.InvoiceID,
		Reason:           r.Reason,
		Amount:           r.Amount,
		VATAmount:        r.VATAmount,
		VATRate:          r.VATRate,
		Registered:       r.Registered,
		Issued:           r.Issued,
		Completed:        r.Completed,
		PaymentReference: r.PaymentReference,
	}
}

// RefundsFromDomain converts domain refunds to responses.
func RefundsFromDomain(refunds []*domain.InvoiceRefund) []*RefundResponse {
	result := make([]*RefundResponse, len(refunds))
	for i, r := range refunds {
		result[i] = RefundFromDomain(r)
	}
	return result
}

// BankTransactionResponse represents a pending bank row in API responses.
type BankTransactionResponse struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	TransText string          `json:"trans_text"`
	Sender    string          `json:"sender"`
	CanReturn bool            `json:"can_return"`
	CreatedAt time.Time       `json:"created_at"`
}

// BankTransactionFromDomain converts a pending bank row to a response.
func BankTransactionFromDomain(t *domain.PendingBankTransaction) *BankTransactionResponse {
	return &BankTransactionResponse{
		ID:        t.ID,
		Method:    t.Method,
		Amount:    t.Amount,
		TransText: t.TransText,
		Sender:    t.Sender,
		CanReturn: t.CanReturn,
		CreatedAt: t.CreatedAt,
	}
}

// BankTransactionsFromDomain converts pending bank rows to responses.
func BankTransactionsFromDomain(txs []*domain.PendingBankTransaction) []*BankTransactionResponse {
	result := make([]*BankTransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = BankTransactionFromDomain(t)
	}
	return result
}

// PaymentResultResponse reports a reconciliation outcome.
type PaymentResultResponse struct {
	Result string `json:"result"`
}

// JobResultResponse reports how many rows a maintenance job touched.
type JobResultResponse struct {
	Processed int `json:"processed"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventfin/fincore/internal/domain"
	"github.com/eventfin/fincore/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[int]*domain.Account

	CreateFunc      func(ctx context.Context, account *domain.Account) error
	GetByNumberFunc func(ctx context.Context, tx usecase.Transaction, number int) (*domain.Account, error)
	ListFunc        func(ctx context.Context, availableForInvoicing bool) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[int]*domain.Account),
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Number] = account
	return nil
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, tx usecase.Transaction, number int) (*domain.Account, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, tx, number)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[number]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, availableForInvoicing bool) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, availableForInvoicing)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if availableForInvoicing && !acc.AvailableForInvoicing {
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// MockObjectRepository is a mock implementation of ObjectRepository.
type MockObjectRepository struct {
	mu      sync.RWMutex
	objects map[string]*domain.Object

	CreateFunc    func(ctx context.Context, object *domain.Object) error
	GetByNameFunc func(ctx context.Context, tx usecase.Transaction, name string) (*domain.Object, error)
	ListFunc      func(ctx context.Context) ([]*domain.Object, error)
}

func NewMockObjectRepository() *MockObjectRepository {
	return &MockObjectRepository{
		objects: make(map[string]*domain.Object),
	}
}

func (m *MockObjectRepository) Create(ctx context.Context, object *domain.Object) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, object)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[object.Name] = object
	return nil
}

func (m *MockObjectRepository) GetByName(ctx context.Context, tx usecase.Transaction, name string) (*domain.Object, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, tx, name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if obj, ok := m.objects[name]; ok {
		return obj, nil
	}
	return nil, domain.ErrObjectNotFound
}

func (m *MockObjectRepository) List(ctx context.Context) ([]*domain.Object, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var objects []*domain.Object
	for _, obj := range m.objects {
		objects = append(objects, obj)
	}
	return objects, nil
}

// MockFiscalYearRepository is a mock implementation of FiscalYearRepository.
type MockFiscalYearRepository struct {
	mu    sync.RWMutex
	years map[int]*domain.FiscalYear

	GetByYearFunc func(ctx context.Context, tx usecase.Transaction, year int) (*domain.FiscalYear, error)
	CreateFunc    func(ctx context.Context, tx usecase.Transaction, fy *domain.FiscalYear) error
	SetOpenFunc   func(ctx context.Context, year int, open bool) error
}

func NewMockFiscalYearRepository() *MockFiscalYearRepository {
	return &MockFiscalYearRepository{
		years: make(map[int]*domain.FiscalYear),
	}
}

func (m *MockFiscalYearRepository) AddYear(year int, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.years[year] = &domain.FiscalYear{Year: year, IsOpen: open, CreatedAt: time.Now()}
}

func (m *MockFiscalYearRepository) GetByYear(ctx context.Context, tx usecase.Transaction, year int) (*domain.FiscalYear, error) {
	if m.GetByYearFunc != nil {
		return m.GetByYearFunc(ctx, tx, year)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if fy, ok := m.years[year]; ok {
		return fy, nil
	}
	return nil, domain.ErrYearNotFound
}

func (m *MockFiscalYearRepository) Create(ctx context.Context, tx usecase.Transaction, fy *domain.FiscalYear) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, fy)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.years[fy.Year] = fy
	return nil
}

func (m *MockFiscalYearRepository) SetOpen(ctx context.Context, year int, open bool) error {
	if m.SetOpenFunc != nil {
		return m.SetOpenFunc(ctx, year, open)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if fy, ok := m.years[year]; ok {
		fy.IsOpen = open
		return nil
	}
	return domain.ErrYearNotFound
}

// MockJournalRepository is a mock implementation of JournalRepository.
type MockJournalRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.JournalEntry
	items   map[string][]*domain.JournalItem
	urls    map[string][]*domain.JournalURL
	seqs    map[int]int

	NextSequenceFunc            func(ctx context.Context, tx usecase.Transaction, year int) (int, error)
	CreateEntryFunc             func(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error
	CreateItemsFunc             func(ctx context.Context, tx usecase.Transaction, items []*domain.JournalItem) error
	AttachURLsFunc              func(ctx context.Context, tx usecase.Transaction, urls []*domain.JournalURL) error
	GetEntryFunc                func(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetEntryForUpdateFunc       func(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error)
	GetItemsFunc                func(ctx context.Context, tx usecase.Transaction, entryID string) ([]*domain.JournalItem, error)
	CloseEntryFunc              func(ctx context.Context, tx usecase.Transaction, id string) error
	ListOpenEntriesFunc         func(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error)
	AccountBalanceFunc          func(ctx context.Context, accountNumber int) (decimal.Decimal, error)
	UnbalancedClosedEntriesFunc func(ctx context.Context) ([]string, error)
}

func NewMockJournalRepository() *MockJournalRepository {
	return &MockJournalRepository{
		entries: make(map[string]*domain.JournalEntry),
		items:   make(map[string][]*domain.JournalItem),
		urls:    make(map[string][]*domain.JournalURL),
		seqs:    make(map[int]int),
	}
}

func (m *MockJournalRepository) NextSequence(ctx context.Context, tx usecase.Transaction, year int) (int, error) {
	if m.NextSequenceFunc != nil {
		return m.NextSequenceFunc(ctx, tx, year)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[year]++
	return m.seqs[year], nil
}

func (m *MockJournalRepository) CreateEntry(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	if m.CreateEntryFunc != nil {
		return m.CreateEntryFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockJournalRepository) CreateItems(ctx context.Context, tx usecase.Transaction, items []*domain.JournalItem) error {
	if m.CreateItemsFunc != nil {
		return m.CreateItemsFunc(ctx, tx, items)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.items[item.EntryID] = append(m.items[item.EntryID], item)
	}
	return nil
}

func (m *MockJournalRepository) AttachURLs(ctx context.Context, tx usecase.Transaction, urls []*domain.JournalURL) error {
	if m.AttachURLsFunc != nil {
		return m.AttachURLsFunc(ctx, tx, urls)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range urls {
		m.urls[u.EntryID] = append(m.urls[u.EntryID], u)
	}
	return nil
}

func (m *MockJournalRepository) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	if m.GetEntryFunc != nil {
		return m.GetEntryFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockJournalRepository) GetEntryForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	if m.GetEntryForUpdateFunc != nil {
		return m.GetEntryForUpdateFunc(ctx, tx, id)
	}
	return m.GetEntry(ctx, id)
}

func (m *MockJournalRepository) GetItems(ctx context.Context, tx usecase.Transaction, entryID string) ([]*domain.JournalItem, error) {
	if m.GetItemsFunc != nil {
		return m.GetItemsFunc(ctx, tx, entryID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[entryID], nil
}

func (m *MockJournalRepository) CloseEntry(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.CloseEntryFunc != nil {
		return m.CloseEntryFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.Closed = true
		return nil
	}
	return domain.ErrEntryNotFound
}

func (m *MockJournalRepository) ListOpenEntries(ctx context.Context, limit, offset int) ([]*domain.JournalEntry, error) {
	if m.ListOpenEntriesFunc != nil {
		return m.ListOpenEntriesFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var open []*domain.JournalEntry
	for _, e := range m.entries {
		if !e.Closed {
			open = append(open, e)
		}
	}
	return open, nil
}

func (m *MockJournalRepository) AccountBalance(ctx context.Context, accountNumber int) (decimal.Decimal, error) {
	if m.AccountBalanceFunc != nil {
		return m.AccountBalanceFunc(ctx, accountNumber)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, items := range m.items {
		for _, item := range items {
			if item.AccountNumber == accountNumber {
				sum = sum.Add(item.Amount)
			}
		}
	}
	return sum, nil
}

func (m *MockJournalRepository) UnbalancedClosedEntries(ctx context.Context) ([]string, error) {
	if m.UnbalancedClosedEntriesFunc != nil {
		return m.UnbalancedClosedEntriesFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var bad []string
	for id, e := range m.entries {
		if !e.Closed {
			continue
		}
		sum := decimal.Zero
		for _, item := range m.items[id] {
			sum = sum.Add(item.Amount)
		}
		if !sum.IsZero() {
			bad = append(bad, id)
		}
	}
	return bad, nil
}

// Entries returns a snapshot of all stored entries, for assertions.
func (m *MockJournalRepository) Entries() []*domain.JournalEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.JournalEntry
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// ItemsFor returns a snapshot of the items attached to an entry.
func (m *MockJournalRepository) ItemsFor(entryID string) []*domain.JournalItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.JournalItem(nil), m.items[entryID]...)
}

// URLsFor returns a snapshot of the urls attached to an entry.
func (m *MockJournalRepository) URLsFor(entryID string) []*domain.JournalURL {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.JournalURL(nil), m.urls[entryID]...)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository.
type MockInvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[string]*domain.Invoice
	rows     map[string][]*domain.InvoiceRow
	nextNum  int64

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Invoice, error)
	GetByNumberFunc      func(ctx context.Context, number int64) (*domain.Invoice, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Invoice, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error
	ListExpiredFunc      func(ctx context.Context, now time.Time) ([]*domain.Invoice, error)
	ListDueRemindersFunc func(ctx context.Context, now time.Time) ([]*domain.Invoice, error)
}

func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{
		invoices: make(map[string]*domain.Invoice),
		rows:     make(map[string][]*domain.InvoiceRow),
	}
}

func (m *MockInvoiceRepository) Create(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, invoice)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextNum++
	invoice.Number = m.nextNum
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *MockInvoiceRepository) CreateRows(ctx context.Context, tx usecase.Transaction, rows []*domain.InvoiceRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows[r.InvoiceID] = append(m.rows[r.InvoiceID], r)
	}
	return nil
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if inv, ok := m.invoices[id]; ok {
		return inv, nil
	}
	return nil, domain.ErrInvoiceNotFound
}

func (m *MockInvoiceRepository) GetByNumber(ctx context.Context, number int64) (*domain.Invoice, error) {
	if m.GetByNumberFunc != nil {
		return m.GetByNumberFunc(ctx, number)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inv := range m.invoices {
		if inv.Number == number {
			return inv, nil
		}
	}
	return nil, domain.ErrInvoiceNotFound
}

func (m *MockInvoiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Invoice, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockInvoiceRepository) GetRows(ctx context.Context, tx usecase.Transaction, invoiceID string) ([]*domain.InvoiceRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows[invoiceID], nil
}

func (m *MockInvoiceRepository) Update(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, invoice)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *MockInvoiceRepository) SetInvoicePDF(ctx context.Context, tx usecase.Transaction, id string, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.invoices[id]; ok {
		inv.PDFInvoice = pdf
		return nil
	}
	return domain.ErrInvoiceNotFound
}

func (m *MockInvoiceRepository) SetReceiptPDF(ctx context.Context, tx usecase.Transaction, id string, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.invoices[id]; ok {
		inv.PDFReceipt = pdf
		return nil
	}
	return domain.ErrInvoiceNotFound
}

func (m *MockInvoiceRepository) DeleteWithRows(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return domain.ErrInvoiceNotFound
	}
	delete(m.invoices, id)
	delete(m.rows, id)
	return nil
}

func (m *MockInvoiceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var invoices []*domain.Invoice
	for _, inv := range m.invoices {
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (m *MockInvoiceRepository) ListExpired(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	if m.ListExpiredFunc != nil {
		return m.ListExpiredFunc(ctx, now)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var expired []*domain.Invoice
	for _, inv := range m.invoices {
		if inv.Finalized && !inv.Deleted && !inv.IsPaid() && inv.CancelTime != nil && inv.CancelTime.Before(now) {
			expired = append(expired, inv)
		}
	}
	return expired, nil
}

func (m *MockInvoiceRepository) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	if m.ListDueRemindersFunc != nil {
		return m.ListDueRemindersFunc(ctx, now)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*domain.Invoice
	for _, inv := range m.invoices {
		if inv.Finalized && !inv.Deleted && !inv.IsPaid() && inv.DueDate.Before(now) && inv.RemindersSent == 0 {
			due = append(due, inv)
		}
	}
	return due, nil
}

// MockRefundRepository is a mock implementation of RefundRepository.
type MockRefundRepository struct {
	mu      sync.RWMutex
	refunds map[string]*domain.InvoiceRefund

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, refund *domain.InvoiceRefund) error
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.InvoiceRefund, error)
	UpdateFunc           func(ctx context.Context, tx usecase.Transaction, refund *domain.InvoiceRefund) error
	ListUnissuedFunc     func(ctx context.Context) ([]string, error)
	ListStalledFunc      func(ctx context.Context, issuedBefore time.Time) ([]*domain.InvoiceRefund, error)
}

func NewMockRefundRepository() *MockRefundRepository {
	return &MockRefundRepository{
		refunds: make(map[string]*domain.InvoiceRefund),
	}
}

func (m *MockRefundRepository) Create(ctx context.Context, tx usecase.Transaction, refund *domain.InvoiceRefund) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, refund)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.ID] = refund
	return nil
}

func (m *MockRefundRepository) GetByID(ctx context.Context, id string) (*domain.InvoiceRefund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.refunds[id]; ok {
		return r, nil
	}
	return nil, domain.ErrRefundNotFound
}

func (m *MockRefundRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.InvoiceRefund, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockRefundRepository) Update(ctx context.Context, tx usecase.Transaction, refund *domain.InvoiceRefund) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, refund)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds[refund.ID] = refund
	return nil
}

func (m *MockRefundRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceRefund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.InvoiceRefund
	for _, r := range m.refunds {
		if r.InvoiceID == invoiceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRefundRepository) ListUnissued(ctx context.Context) ([]string, error) {
	if m.ListUnissuedFunc != nil {
		return m.ListUnissuedFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, r := range m.refunds {
		if r.Issued == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MockRefundRepository) ListStalled(ctx context.Context, issuedBefore time.Time) ([]*domain.InvoiceRefund, error) {
	if m.ListStalledFunc != nil {
		return m.ListStalledFunc(ctx, issuedBefore)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.InvoiceRefund
	for _, r := range m.refunds {
		if r.Issued != nil && r.Completed == nil && r.Issued.Before(issuedBefore) {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockBankTransactionRepository is a mock implementation of
// BankTransactionRepository.
type MockBankTransactionRepository struct {
	mu      sync.RWMutex
	pending map[string]*domain.PendingBankTransaction

	CreateFunc func(ctx context.Context, tx usecase.Transaction, bt *domain.PendingBankTransaction) error
}

func NewMockBankTransactionRepository() *MockBankTransactionRepository {
	return &MockBankTransactionRepository{
		pending: make(map[string]*domain.PendingBankTransaction),
	}
}

func (m *MockBankTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, bt *domain.PendingBankTransaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, bt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[bt.ID] = bt
	return nil
}

func (m *MockBankTransactionRepository) GetByID(ctx context.Context, id string) (*domain.PendingBankTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if bt, ok := m.pending[id]; ok {
		return bt, nil
	}
	return nil, domain.ErrBankTransactionNotFound
}

func (m *MockBankTransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[id]; !ok {
		return domain.ErrBankTransactionNotFound
	}
	delete(m.pending, id)
	return nil
}

func (m *MockBankTransactionRepository) List(ctx context.Context, limit, offset int) ([]*domain.PendingBankTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PendingBankTransaction
	for _, bt := range m.pending {
		out = append(out, bt)
	}
	return out, nil
}

func (m *MockBankTransactionRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.PendingBankTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PendingBankTransaction
	for _, bt := range m.pending {
		if bt.CreatedAt.Before(cutoff) {
			out = append(out, bt)
		}
	}
	return out, nil
}

// MockHistoryRepository records history and log lines in memory.
type MockHistoryRepository struct {
	mu      sync.RWMutex
	history map[string][]string
	log     []string
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{
		history: make(map[string][]string),
	}
}

func (m *MockHistoryRepository) AppendHistory(ctx context.Context, tx usecase.Transaction, invoiceID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[invoiceID] = append(m.history[invoiceID], text)
	return nil
}

func (m *MockHistoryRepository) AppendLog(ctx context.Context, tx usecase.Transaction, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, message)
	return nil
}

func (m *MockHistoryRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.InvoiceHistory
	for _, text := range m.history[invoiceID] {
		out = append(out, &domain.InvoiceHistory{InvoiceID: invoiceID, Text: text})
	}
	return out, nil
}

// HistoryFor returns the recorded history lines for an invoice.
func (m *MockHistoryRepository) HistoryFor(invoiceID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.history[invoiceID]...)
}

// LogLines returns the recorded settlement log.
func (m *MockHistoryRepository) LogLines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.log...)
}

// MockMailQueue records queued mail in memory.
type MockMailQueue struct {
	mu    sync.RWMutex
	mails []*domain.QueuedMail

	CreateFunc func(ctx context.Context, mail *domain.QueuedMail) error
}

func NewMockMailQueue() *MockMailQueue {
	return &MockMailQueue{}
}

func (m *MockMailQueue) Create(ctx context.Context, mail *domain.QueuedMail) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, mail)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails = append(m.mails, mail)
	return nil
}

func (m *MockMailQueue) CreateTx(ctx context.Context, tx usecase.Transaction, mail *domain.QueuedMail) error {
	return m.Create(ctx, mail)
}

// Mails returns a snapshot of the queued mail.
func (m *MockMailQueue) Mails() []*domain.QueuedMail {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.QueuedMail(nil), m.mails...)
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu      sync.Mutex
	commits int
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{manager: m}, nil
}

// Commits reports how many transactions were committed.
func (m *MockTransactionManager) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	manager *MockTransactionManager

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	if m.manager != nil {
		m.manager.mu.Lock()
		m.manager.commits++
		m.manager.mu.Unlock()
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator generates sequential test ids.
type MockIDGenerator struct {
	mu   sync.Mutex
	next int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return "test-id-" + strconv.Itoa(m.next)
}

// MockRetrier runs the operation exactly once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

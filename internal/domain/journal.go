package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a double-entry accounting record. It belongs to exactly
// one fiscal year and carries a per-year gap-free sequence number assigned
// at creation. A closed entry balances to zero; an open entry is awaiting
// manual completion.
type JournalEntry struct {
	ID        string
	Year      int
	Seq       int
	Date      time.Time
	Closed    bool
	CreatedAt time.Time
}

// JournalItem is a single signed posting within an entry. Positive amounts
// are debits, negative amounts are credits. ObjectName is empty when the
// posting has no cost-center tag.
type JournalItem struct {
	ID            string
	EntryID       string
	AccountNumber int
	Description   string
	Amount        decimal.Decimal
	ObjectName    string
}

// JournalURL is an audit reference attached to an entry, pointing back at
// the invoice or provider dashboard that caused the posting.
type JournalURL struct {
	ID      string
	EntryID string
	URL     string
}

// EntryItem is the caller-supplied form of a posting, referencing the
// account by number and the object by name.
type EntryItem struct {
	AccountNumber int
	Description   string
	Amount        decimal.Decimal
	ObjectName    string
}

// maxItemDescription caps posting descriptions the same way the journal
// table does.
const maxItemDescription = 200

// TruncateDescription trims a posting description to the persisted width.
func TruncateDescription(s string) string {
	if len(s) > maxItemDescription {
		return s[:maxItemDescription]
	}
	return s
}

// SumItems returns the signed sum of the item amounts.
func SumItems(items []EntryItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Amount)
	}
	return sum
}

// ValidateEntryItems performs the pure validation of a prospective journal
// entry: every amount non-zero and rounded to cents, and the signed sum
// exactly zero unless the entry is deliberately left open.
func ValidateEntryItems(items []EntryItem, leaveOpen bool) error {
	if len(items) == 0 {
		return ErrEmptyEntry
	}
	for _, it := range items {
		if err := ValidateAmount(it.Amount); err != nil {
			return err
		}
	}
	if !leaveOpen && !SumItems(items).IsZero() {
		return ErrUnbalancedEntry
	}
	return nil
}

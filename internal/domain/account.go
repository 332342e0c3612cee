package domain

import "time"

// Account is a numbered bucket in the chart of accounts. Its identity is
// immutable; balances are always derived from journal items, never stored.
type Account struct {
	Number                int
	Name                  string
	AvailableForInvoicing bool
	CreatedAt             time.Time
}

// Object is a cost-center tag attachable to journal items, for example a
// specific conference. Inactive objects may still appear on historical
// postings but cannot be referenced by new ones.
type Object struct {
	Name      string
	Active    bool
	CreatedAt time.Time
}

// FiscalYear gates journal entry creation. Once a year is closed its
// entries are permanently immutable.
type FiscalYear struct {
	Year      int
	IsOpen    bool
	CreatedAt time.Time
}

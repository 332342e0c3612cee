package domain

import "github.com/shopspring/decimal"

// RoundedToCents reports whether d carries at most two decimal places.
// Amounts entering the ledger must already be rounded; silently rounding
// here would hide upstream floating point bugs.
func RoundedToCents(d decimal.Decimal) bool {
	return d.Exponent() >= -2 || d.Equal(d.Round(2))
}

// ValidateAmount checks that an amount is non-zero and rounded to cents.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsZero() {
		return ErrZeroAmountItem
	}
	if !RoundedToCents(d) {
		return ErrUnroundedAmount
	}
	return nil
}

package money

import (
	"github.com/shopspring/decimal"
)

// Monetary columns are decimal(20,2); amounts with more precision than the
// minor unit are rejected rather than rounded.
const MaxScale = 2

func Zero() decimal.Decimal {
	return decimal.Zero
}

func FromMajor(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(value)
}

// IsValidAmount reports whether d can be used as a transaction amount:
// strictly positive and at most two decimal places.
func IsValidAmount(d decimal.Decimal) bool {
	if !d.IsPositive() {
		return false
	}
	return d.Exponent() >= -MaxScale || d.Equal(d.Round(MaxScale))
}

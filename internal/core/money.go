package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a price string into a decimal.
//
// Both dot (120.50) and comma (120,50) separators are accepted and an
// optional currency suffix is stripped. Negative values are rejected; zero is
// a valid price for a completed appointment.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "zł"), "PLN"))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// RoundWhole rounds to zero decimal places, half away from zero.
func RoundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// FormatWhole renders an amount as an integer string after RoundWhole.
func FormatWhole(d decimal.Decimal) string {
	return RoundWhole(d).StringFixed(0)
}

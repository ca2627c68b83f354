// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for stored amounts (NUMERIC(18,4)).
const MoneyScale int32 = 4

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// Use NewMoneyFromString for values that come from user input.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// LineTotal returns quantity x unit price.
func LineTotal(quantity int, unitPrice Money) Money {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Percent returns base x pct / 100, rounded to the storage scale.
func Percent(base, pct Money) Money {
	return base.Mul(pct).Div(decimal.NewFromInt(100)).Round(MoneyScale)
}

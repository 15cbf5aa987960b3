// Package money holds the fixed-point helpers shared by every balance and
// ledger computation. Amounts carry two decimal places, rounded half up.
package money

import (
	"github.com/shopspring/decimal"
)

const Places = 2

var hundred = decimal.NewFromInt(100)

// Quantize rounds d to two places, halves away from zero.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Percent returns rate percent of amount, quantized.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return Quantize(amount.Mul(rate).Div(hundred))
}

// Format renders d with exactly two decimals, e.g. "20.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Positive reports d > 0.
func Positive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

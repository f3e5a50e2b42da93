package utility

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// moneyPlaces is the scale of every NUMERIC(20,2) money column.
	moneyPlaces = 2
	// moneyDigits is the integer part allowed by NUMERIC(20,2).
	moneyDigits = 18
)

var hundred = decimal.NewFromInt(100)

// maxMoneyValue returns the maximum value a money column can hold.
func maxMoneyValue() decimal.Decimal {
	return decimal.New(1, moneyDigits).Sub(decimal.New(1, -moneyPlaces))
}

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// CleanMoney rounds to cents and clamps into the range a money column accepts.
func CleanMoney(d decimal.Decimal) decimal.Decimal {
	rounded := RoundMoney(d)

	minValue := maxMoneyValue().Neg()
	if rounded.GreaterThan(maxMoneyValue()) {
		return maxMoneyValue()
	} else if rounded.LessThan(minValue) {
		return minValue
	}
	return rounded
}

// HasAtMostCents reports whether d carries no precision below cents.
func HasAtMostCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(moneyPlaces))
}

// Percent returns value * pct / 100 without rounding.
func Percent(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(hundred)
}

func IsValidTime(t *time.Time) bool {
	return t != nil && !t.IsZero()
}

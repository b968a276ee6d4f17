package shared

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places kept for monetary amounts
const AmountScale = 2

var hundred = decimal.NewFromInt(100)

// RoundAmount rounds a monetary amount to AmountScale places (half away from zero)
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// ToMinorUnits converts an amount to paise (or cents)
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts paise (or cents) back to an amount
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(hundred)
}

// Percentage returns part/whole*100 rounded to 2 places, or 0 when whole is zero
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

package trade

import (
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// amountPrinter formats rupee amounts with Indian digit grouping
var amountPrinter = message.NewPrinter(language.MustParse("en-IN"))

func formatRupees(d decimal.Decimal) string {
	f, _ := d.Float64()
	return "₹" + amountPrinter.Sprint(number.Decimal(f, number.Scale(2)))
}

func budgetWarningMessage(lineNo int, period accounting.Period, remaining, lineTotal decimal.Decimal) string {
	if !remaining.IsPositive() {
		return amountPrinter.Sprintf("line %d: budget for %s is exhausted, line adds %s",
			lineNo, period.String(), formatRupees(lineTotal))
	}
	return amountPrinter.Sprintf("line %d: %s exceeds the %s remaining in the %s budget",
		lineNo, formatRupees(lineTotal), formatRupees(remaining), period.String())
}

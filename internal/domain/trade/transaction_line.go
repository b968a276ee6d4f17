package trade

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/catalog"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineSpec is a fully resolved line input: the GST rate is already defaulted
// and the analytical account already resolved.
type LineSpec struct {
	ProductID           uuid.UUID
	Description         string
	Quantity            decimal.Decimal
	UnitPrice           decimal.Decimal
	GSTRate             decimal.Decimal
	AnalyticalAccountID *uuid.UUID
}

// TransactionLine is one costed line of a transaction
type TransactionLine struct {
	ID                  uuid.UUID
	TransactionID       uuid.UUID
	LineNo              int
	ProductID           uuid.UUID
	Description         string
	Quantity            decimal.Decimal
	UnitPrice           decimal.Decimal
	GSTRate             decimal.Decimal
	LineTotal           decimal.Decimal
	AnalyticalAccountID *uuid.UUID
}

// Base is quantity × unit price
func (l *TransactionLine) Base() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Tax is quantity × unit price × gst / 100
func (l *TransactionLine) Tax() decimal.Decimal {
	return l.Base().Mul(l.GSTRate).Div(hundred)
}

// Spec converts the line back into an input spec
func (l *TransactionLine) Spec() LineSpec {
	return LineSpec{
		ProductID:           l.ProductID,
		Description:         l.Description,
		Quantity:            l.Quantity,
		UnitPrice:           l.UnitPrice,
		GSTRate:             l.GSTRate,
		AnalyticalAccountID: l.AnalyticalAccountID,
	}
}

// NewTransactionLine validates and costs a line:
// lineTotal = quantity × unitPrice × (1 + gstRate/100)
func NewTransactionLine(transactionID uuid.UUID, lineNo int, spec LineSpec) (*TransactionLine, error) {
	if spec.ProductID == uuid.Nil {
		return nil, shared.NewValidationError(fmt.Sprintf("line %d: product is required", lineNo))
	}
	if !spec.Quantity.IsPositive() {
		return nil, shared.NewValidationError(fmt.Sprintf("line %d: quantity must be positive", lineNo))
	}
	if spec.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError(fmt.Sprintf("line %d: unit price cannot be negative", lineNo))
	}
	if err := catalog.ValidateGSTRate(spec.GSTRate); err != nil {
		return nil, shared.NewValidationError(fmt.Sprintf("line %d: %s", lineNo, err.Error()))
	}
	l := &TransactionLine{
		ID:                  uuid.New(),
		TransactionID:       transactionID,
		LineNo:              lineNo,
		ProductID:           spec.ProductID,
		Description:         strings.TrimSpace(spec.Description),
		Quantity:            spec.Quantity,
		UnitPrice:           spec.UnitPrice,
		GSTRate:             spec.GSTRate,
		AnalyticalAccountID: spec.AnalyticalAccountID,
	}
	multiplier := decimal.NewFromInt(1).Add(spec.GSTRate.Div(hundred))
	l.LineTotal = shared.RoundAmount(l.Base().Mul(multiplier))
	return l, nil
}

func buildLines(transactionID uuid.UUID, specs []LineSpec) ([]TransactionLine, error) {
	if len(specs) == 0 {
		return nil, shared.NewValidationError("a transaction needs at least one line")
	}
	lines := make([]TransactionLine, 0, len(specs))
	for i, spec := range specs {
		l, err := NewTransactionLine(transactionID, i+1, spec)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	return lines, nil
}

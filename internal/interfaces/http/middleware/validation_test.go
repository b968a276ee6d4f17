package middleware

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	Quantity decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
}

type documentInput struct {
	Allocated decimal.Decimal `json:"allocated_amount" binding:"decimal_gte0"`
	Kind      string          `json:"type" binding:"required,oneof=SEND RECEIVE"`
	Lines     []lineInput     `json:"lines" binding:"required,min=1,dive"`
}

func newTestValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

func TestRegisterValidations(t *testing.T) {
	v := newTestValidator()

	valid := documentInput{
		Allocated: decimal.Zero,
		Kind:      "SEND",
		Lines:     []lineInput{{Quantity: decimal.RequireFromString("0.5")}},
	}
	assert.NoError(t, v.Struct(valid))

	invalid := documentInput{
		Allocated: decimal.NewFromInt(-1),
		Kind:      "LEND",
		Lines:     []lineInput{{Quantity: decimal.RequireFromString("2")}, {Quantity: decimal.Zero}},
	}
	err := v.Struct(invalid)
	require.Error(t, err)

	details := ValidationDetails(err)
	byField := map[string]string{}
	for _, d := range details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "must not be negative", byField["allocated_amount"])
	assert.Equal(t, "must be one of: SEND RECEIVE", byField["type"])
	assert.Equal(t, "must be greater than 0", byField["lines[1].quantity"])
	assert.Len(t, details, 3)
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}

package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func details(amount int64) PaymentDetails {
	return PaymentDetails{
		Amount:      decimal.NewFromInt(amount),
		PaymentDate: time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		Method:      PaymentMethodBankTransfer,
	}
}

func alloc(id uuid.UUID, amount int64) AllocationInput {
	return AllocationInput{TransactionID: id, AllocatedAmount: decimal.NewFromInt(amount)}
}

func TestNewPayment(t *testing.T) {
	contact := uuid.New()

	t.Run("draft with allocations", func(t *testing.T) {
		inv1, inv2 := uuid.New(), uuid.New()
		p, err := NewPayment("PAY-2603-0001", PaymentTypeReceive, contact, details(1000), []AllocationInput{alloc(inv1, 600), alloc(inv2, 300)})
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusDraft, p.Status)
		assert.Len(t, p.Allocations, 2)
		assert.True(t, p.AllocatedTotal().Equal(decimal.NewFromInt(900)))
		assert.True(t, p.Unallocated().Equal(decimal.NewFromInt(100)))
		for _, a := range p.Allocations {
			assert.Equal(t, p.ID, a.PaymentID)
		}
	})

	t.Run("over-allocation rejected", func(t *testing.T) {
		_, err := NewPayment("PAY-2603-0002", PaymentTypeReceive, contact, details(300), []AllocationInput{alloc(uuid.New(), 500)})
		require.Error(t, err)
		assert.True(t, shared.IsKind(err, shared.CodeValidation))
		assert.Equal(t, "allocations total cannot exceed payment amount", err.Error())
	})

	t.Run("duplicate and non-positive allocations rejected", func(t *testing.T) {
		inv := uuid.New()
		_, err := NewPayment("PAY-1", PaymentTypeReceive, contact, details(1000), []AllocationInput{alloc(inv, 100), alloc(inv, 100)})
		assert.True(t, shared.IsKind(err, shared.CodeValidation))

		_, err = NewPayment("PAY-1", PaymentTypeReceive, contact, details(1000), []AllocationInput{alloc(inv, 0)})
		assert.True(t, shared.IsKind(err, shared.CodeValidation))
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := NewPayment("PAY-1", PaymentTypeReceive, contact, details(0), nil)
		assert.True(t, shared.IsKind(err, shared.CodeValidation))

		d := details(10)
		d.Method = "BARTER"
		_, err = NewPayment("PAY-1", PaymentTypeReceive, contact, d, nil)
		assert.True(t, shared.IsKind(err, shared.CodeValidation))

		_, err = NewPayment("PAY-1", PaymentType("GIFT"), contact, details(10), nil)
		assert.True(t, shared.IsKind(err, shared.CodeValidation))
	})
}

func TestPayment_Lifecycle(t *testing.T) {
	inv1, inv2 := uuid.New(), uuid.New()
	p, err := NewPayment("PAY-1", PaymentTypeReceive, uuid.New(), details(600), []AllocationInput{alloc(inv1, 600)})
	require.NoError(t, err)

	t.Run("revise returns previous targets", func(t *testing.T) {
		previous, err := p.Revise(details(700), []AllocationInput{alloc(inv2, 700)})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{inv1}, previous)
		assert.Equal(t, []uuid.UUID{inv2}, p.AllocatedTransactionIDs())
		assert.Len(t, UnionIDs(previous, p.AllocatedTransactionIDs()), 2)
	})

	t.Run("failed revise leaves payment untouched", func(t *testing.T) {
		_, err := p.Revise(details(100), []AllocationInput{alloc(inv1, 200)})
		require.Error(t, err)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(700)))
		assert.Equal(t, []uuid.UUID{inv2}, p.AllocatedTransactionIDs())
	})

	t.Run("confirm then delete is rejected", func(t *testing.T) {
		require.NoError(t, p.Confirm())
		assert.True(t, shared.IsKind(p.Confirm(), shared.CodeInvalidState))
		assert.True(t, shared.IsKind(p.EnsureDeletable(), shared.CodeInvalidState))
	})

	t.Run("void clears allocations once", func(t *testing.T) {
		affected, err := p.Void()
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{inv2}, affected)
		assert.Empty(t, p.Allocations)
		assert.Equal(t, PaymentStatusVoided, p.Status)

		_, err = p.Void()
		assert.True(t, shared.IsKind(err, shared.CodeInvalidState))

		_, err = p.Revise(details(1), nil)
		assert.True(t, shared.IsKind(err, shared.CodeInvalidState))
		assert.NoError(t, p.EnsureDeletable())
	})
}

func TestGatewayOrderRequest_Validate(t *testing.T) {
	assert.ErrorIs(t, GatewayOrderRequest{AmountMinor: 0, Currency: "INR"}.Validate(), ErrGatewayInvalidAmount)
	assert.Error(t, GatewayOrderRequest{AmountMinor: 100}.Validate())
	assert.NoError(t, GatewayOrderRequest{AmountMinor: 100, Currency: "INR"}.Validate())
	assert.True(t, GatewayPaymentCaptured.IsSuccess())
	assert.False(t, GatewayPaymentFailed.IsSuccess())
}

func TestValidateAllocations(t *testing.T) {
	id := uuid.New()
	assert.NoError(t, ValidateAllocations(decimal.NewFromInt(300), []AllocationInput{alloc(id, 300)}))

	err := ValidateAllocations(decimal.NewFromInt(300), []AllocationInput{alloc(id, 500)})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.CodeValidation))
	assert.Contains(t, err.Error(), "allocations total cannot exceed payment amount")
}

func TestPayment_AllocatedTo(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	p, err := NewPayment("PAY-2501-0001", PaymentTypeReceive, uuid.New(), details(100), []AllocationInput{alloc(a, 60)})
	require.NoError(t, err)
	assert.True(t, p.AllocatedTo(a).Equal(decimal.NewFromInt(60)))
	assert.True(t, p.AllocatedTo(b).IsZero())

	p.AttachGatewayPayment(" pay_123 ")
	assert.Equal(t, "pay_123", p.GatewayPaymentID)
}

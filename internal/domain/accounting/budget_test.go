package accounting

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBudget(t *testing.T) {
	account := uuid.New()

	t.Run("starts with zero usage", func(t *testing.T) {
		b, err := NewBudget(account, Period{Year: 2026, Month: 3}, decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.True(t, b.UsedAmount.IsZero())
		assert.True(t, b.Remaining().Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, "2026-03", b.Period().String())
	})

	t.Run("rejects bad period and negative amount", func(t *testing.T) {
		_, err := NewBudget(account, Period{Year: 2026, Month: 13}, decimal.NewFromInt(1))
		assert.True(t, shared.IsKind(err, shared.CodeValidation))

		_, err = NewBudget(account, Period{Year: 2026, Month: 1}, decimal.NewFromInt(-1))
		assert.True(t, shared.IsKind(err, shared.CodeValidation))
	})
}

func TestBudget_Utilization(t *testing.T) {
	b, err := NewBudget(uuid.New(), PeriodOf(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)), decimal.NewFromInt(1000))
	require.NoError(t, err)
	b.UsedAmount = decimal.NewFromInt(236)

	assert.True(t, b.Utilization().Equal(decimal.RequireFromString("23.6")))
	assert.False(t, b.WouldExceed(decimal.Zero, decimal.NewFromInt(764)))
	assert.True(t, b.WouldExceed(decimal.NewFromInt(500), decimal.NewFromInt(300)))

	require.NoError(t, b.SetAllocated(decimal.Zero))
	assert.True(t, b.Utilization().IsZero())
}

func TestSummarize(t *testing.T) {
	period := Period{Year: 2026, Month: 3}
	acc, _ := NewAnalyticalAccount("PROD", "Production", nil)

	b1, _ := NewBudget(acc.ID, period, decimal.NewFromInt(1000))
	b1.UsedAmount = decimal.NewFromInt(250)
	b2, _ := NewBudget(uuid.New(), period, decimal.Zero)
	b2.UsedAmount = decimal.NewFromInt(50)

	s := Summarize(period, []Budget{*b1, *b2}, map[uuid.UUID]AnalyticalAccount{acc.ID: *acc})

	require.Len(t, s.Accounts, 2)
	assert.Equal(t, "PROD", s.Accounts[0].AccountCode)
	assert.True(t, s.Accounts[0].Utilization.Equal(decimal.NewFromInt(25)))
	assert.True(t, s.Accounts[1].Utilization.IsZero())
	assert.True(t, s.TotalAllocated.Equal(decimal.NewFromInt(1000)))
	assert.True(t, s.TotalUsed.Equal(decimal.NewFromInt(300)))
	assert.True(t, s.Utilization.Equal(decimal.NewFromInt(30)))
}

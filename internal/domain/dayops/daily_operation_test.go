package dayops

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelstation-ledger/internal/domain/shared"
)

func TestNewDailyOperation(t *testing.T) {
	date := time.Date(2025, 3, 14, 13, 45, 0, 0, time.UTC)

	op := NewDailyOperation(date, 120000, -3000, "cashier-1", "short on fives")

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), op.OperationDate)
	assert.Equal(t, shared.DayStatusOpen, op.Status)
	assert.False(t, op.DayLocked)
	assert.Equal(t, int64(120000), op.OpeningCashActual)
	assert.Equal(t, int64(-3000), op.OpeningCashVariance)
	assert.Equal(t, "cashier-1", op.OpenedBy)
	assert.Equal(t, "short on fives", op.Notes)
	assert.Nil(t, op.ClosedAt)
}

func TestDailyOperation_Close(t *testing.T) {
	op := NewDailyOperation(time.Now(), 100000, 0, "cashier-1", "")

	op.Close(145000, 2000, 300000, 255000, "manager-1")

	assert.Equal(t, shared.DayStatusClosed, op.Status)
	assert.True(t, op.DayLocked)
	require.NotNil(t, op.ClosingCashActual)
	assert.Equal(t, int64(145000), *op.ClosingCashActual)
	require.NotNil(t, op.ClosingCashVariance)
	assert.Equal(t, int64(2000), *op.ClosingCashVariance)
	assert.Equal(t, int64(300000), op.TotalSales)
	assert.Equal(t, int64(255000), op.TotalExpenses)
	assert.Equal(t, "manager-1", op.ClosedBy)
	require.NotNil(t, op.ClosedAt)
}

func TestTolerancePolicy_Tolerance(t *testing.T) {
	policy := TolerancePolicy{Floor: 50000, RateBps: 50}

	t.Run("FloorWinsForSmallExpectations", func(t *testing.T) {
		// 0.5% of 1,000,000 is 5,000, below the floor
		assert.Equal(t, int64(50000), policy.Tolerance(1000000))
	})

	t.Run("RateWinsForLargeExpectations", func(t *testing.T) {
		// 0.5% of 20,000,000 is 100,000
		assert.Equal(t, int64(100000), policy.Tolerance(20000000))
	})

	t.Run("ExactCrossoverPoint", func(t *testing.T) {
		// 0.5% of 10,000,000 equals the floor
		assert.Equal(t, int64(50000), policy.Tolerance(10000000))
	})

	t.Run("ZeroAndNegativeExpectationsGetTheFloor", func(t *testing.T) {
		assert.Equal(t, int64(50000), policy.Tolerance(0))
		assert.Equal(t, int64(50000), policy.Tolerance(-250000))
	})
}

func TestTolerancePolicy_CheckVariance(t *testing.T) {
	policy := TolerancePolicy{Floor: 50000, RateBps: 50}

	t.Run("WithinToleranceNeedsNoExplanation", func(t *testing.T) {
		variance, err := policy.CheckVariance(1000000, 1050000, "")
		require.NoError(t, err)
		assert.Equal(t, int64(50000), variance)
	})

	t.Run("BeyondToleranceWithoutExplanation", func(t *testing.T) {
		variance, err := policy.CheckVariance(1000000, 1050001, "")
		assert.ErrorIs(t, err, ErrExplanationRequired)
		assert.Equal(t, int64(50001), variance)
	})

	t.Run("BeyondToleranceWithExplanation", func(t *testing.T) {
		variance, err := policy.CheckVariance(1000000, 900000, "till counted twice, note found")
		require.NoError(t, err)
		assert.Equal(t, int64(-100000), variance)
	})

	t.Run("ShortageIsNegative", func(t *testing.T) {
		variance, err := policy.CheckVariance(200000, 170000, "")
		require.NoError(t, err)
		assert.Equal(t, int64(-30000), variance)
	})
}

func TestDayErrors_Is(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	other := date.AddDate(0, 0, 1)

	t.Run("ZeroDateTargetMatchesAnyDate", func(t *testing.T) {
		assert.True(t, errors.Is(ErrDayAlreadyStarted{Date: date}, ErrDayAlreadyStarted{}))
		assert.True(t, errors.Is(ErrDayNotOpen{Date: date}, ErrDayNotOpen{}))
		assert.True(t, errors.Is(ErrOperationNotFound{Date: date}, ErrOperationNotFound{}))
		assert.True(t, errors.Is(ErrDuplicateDateRow{Date: date}, ErrDuplicateDateRow{}))
	})

	t.Run("SpecificDateTargetMatchesOnlyThatDate", func(t *testing.T) {
		assert.True(t, errors.Is(ErrDayNotOpen{Date: date}, ErrDayNotOpen{Date: date}))
		assert.False(t, errors.Is(ErrDayNotOpen{Date: date}, ErrDayNotOpen{Date: other}))
	})

	t.Run("DistinctTypesDoNotMatch", func(t *testing.T) {
		assert.False(t, errors.Is(ErrDayAlreadyStarted{Date: date}, ErrDayNotOpen{}))
	})
}

func TestDateOf(t *testing.T) {
	t.Run("TruncatesToUTCMidnight", func(t *testing.T) {
		ts := time.Date(2025, 3, 14, 23, 59, 59, 999999999, time.UTC)
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), DateOf(ts))
	})

	t.Run("ConvertsZonedTimestampsToUTCFirst", func(t *testing.T) {
		zone := time.FixedZone("UTC+3", 3*60*60)
		ts := time.Date(2025, 3, 15, 1, 30, 0, 0, zone) // 22:30 on the 14th in UTC
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), DateOf(ts))
	})
}

func TestNewDailyBalance(t *testing.T) {
	date := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	balance := NewDailyBalance(date, 120000, 4500000)

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), balance.BalanceDate)
	assert.Equal(t, int64(120000), balance.CashOpening)
	assert.Equal(t, int64(120000), balance.CashClosing, "closing starts at opening")
	assert.Equal(t, int64(4500000), balance.BankOpening)
	assert.Equal(t, int64(4500000), balance.BankClosing)
	assert.False(t, balance.IsClosed)
}

func TestNewVarianceLogEntry(t *testing.T) {
	date := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	entry := NewVarianceLogEntry(date, shared.VarianceTypeClosingCash, 150000, 147000, "parking refund paid from drawer", "cashier-1")

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), entry.VarianceDate)
	assert.Equal(t, shared.VarianceTypeClosingCash, entry.VarianceType)
	assert.Equal(t, int64(150000), entry.ExpectedAmount)
	assert.Equal(t, int64(147000), entry.ActualAmount)
	assert.Equal(t, int64(-3000), entry.Difference)
	assert.Equal(t, "cashier-1", entry.ReportedBy)
}

package cardpayment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelstation-ledger/internal/domain/shared"
)

func TestNewCardType(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		cardType, err := NewCardType("Visa", 200)
		require.NoError(t, err)
		require.NotNil(t, cardType)

		assert.NotEqual(t, uuid.Nil, cardType.ID)
		assert.Equal(t, "Visa", cardType.Name)
		assert.Equal(t, int64(200), cardType.TaxRateBps)
		assert.True(t, cardType.Active)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := NewCardType("", 200)
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("RateOutOfRange", func(t *testing.T) {
		_, err := NewCardType("Visa", -1)
		assert.ErrorIs(t, err, ErrInvalidTaxRate)

		_, err = NewCardType("Visa", 10001)
		assert.ErrorIs(t, err, ErrInvalidTaxRate)
	})
}

func TestCardType_TaxFor(t *testing.T) {
	t.Run("ExactRate", func(t *testing.T) {
		ct := &CardType{TaxRateBps: 200} // 2%
		assert.Equal(t, int64(200), ct.TaxFor(10000))
	})

	t.Run("RoundsHalfUp", func(t *testing.T) {
		ct := &CardType{TaxRateBps: 150} // 1.5%
		// 333 * 150 = 49950, exactly half a cent, rounds up
		assert.Equal(t, int64(5), ct.TaxFor(333))
		// 332 * 150 = 49800, rounds down
		assert.Equal(t, int64(5), ct.TaxFor(334))
		assert.Equal(t, int64(5), ct.TaxFor(332))
	})

	t.Run("ZeroRate", func(t *testing.T) {
		ct := &CardType{TaxRateBps: 0}
		assert.Equal(t, int64(0), ct.TaxFor(999999))
	})

	t.Run("FullRate", func(t *testing.T) {
		ct := &CardType{TaxRateBps: 10000}
		assert.Equal(t, int64(12345), ct.TaxFor(12345))
	})
}

func TestNewCardPayment(t *testing.T) {
	cardType, err := NewCardType("Mastercard", 200)
	require.NoError(t, err)

	t.Run("CapturesRateAtSaleTime", func(t *testing.T) {
		payment, err := NewCardPayment(cardType, 10000, cardType.CreatedAt, "cashier-1")
		require.NoError(t, err)

		assert.Equal(t, cardType.ID, payment.CardTypeID)
		assert.Equal(t, int64(10000), payment.Amount)
		assert.Equal(t, int64(200), payment.TaxRateBps)
		assert.Equal(t, int64(200), payment.TaxAmount)
		assert.Equal(t, int64(9800), payment.NetAmount)
		assert.Equal(t, shared.CardPaymentStatusHold, payment.Status)
		assert.Equal(t, "cashier-1", payment.CreatedBy)
		assert.Nil(t, payment.ReceivedAt)
		assert.Nil(t, payment.SettlementAccountID)
	})

	t.Run("LaterRateChangeDoesNotAffectPayment", func(t *testing.T) {
		payment, err := NewCardPayment(cardType, 10000, cardType.CreatedAt, "cashier-1")
		require.NoError(t, err)

		cardType.TaxRateBps = 500

		assert.Equal(t, int64(200), payment.TaxRateBps)
		assert.Equal(t, int64(200), payment.TaxAmount)

		cardType.TaxRateBps = 200
	})

	t.Run("NonPositiveGross", func(t *testing.T) {
		_, err := NewCardPayment(cardType, 0, cardType.CreatedAt, "cashier-1")
		assert.ErrorIs(t, err, ErrNonPositiveAmount)
	})
}

package cardpayment

import (
	"errors"
	"time"

	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrNonPositiveAmount   = errors.New("card payment amount must be positive")
	ErrDestinationRequired = errors.New("settlement destination account is required")
)

// CardPayment is a card receivable. It is created HOLD at sale time with the
// tax figures captured from the card type configuration in force at that
// moment, and transitions exactly once to RECEIVED when settled into an
// account.
type CardPayment struct {
	ID                  uuid.UUID                `json:"id"`
	PaymentDate         time.Time                `json:"payment_date"`
	CardTypeID          uuid.UUID                `json:"card_type_id"`
	Amount              int64                    `json:"amount"` // Gross, in cents/minor units
	TaxRateBps          int64                    `json:"tax_rate_bps"`
	TaxAmount           int64                    `json:"tax_amount"`
	NetAmount           int64                    `json:"net_amount"`
	Status              shared.CardPaymentStatus `json:"status"`
	ReceivedAt          *time.Time               `json:"received_at,omitempty"`
	SettlementAccountID *uuid.UUID               `json:"settlement_account_id,omitempty"`
	CreatedBy           string                   `json:"created_by"`
	CreatedAt           time.Time                `json:"created_at"`
}

// NewCardPayment records a card sale on hold, capturing the card type's
// current tax rate so later configuration changes cannot alter it.
func NewCardPayment(cardType *CardType, gross int64, paymentDate time.Time, createdBy string) (*CardPayment, error) {
	if gross <= 0 {
		return nil, ErrNonPositiveAmount
	}

	tax := cardType.TaxFor(gross)

	return &CardPayment{
		ID:          uuid.New(),
		PaymentDate: paymentDate,
		CardTypeID:  cardType.ID,
		Amount:      gross,
		TaxRateBps:  cardType.TaxRateBps,
		TaxAmount:   tax,
		NetAmount:   gross - tax,
		Status:      shared.CardPaymentStatusHold,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}, nil
}

// ErrPaymentNotFound indicates missing card payment
type ErrPaymentNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrPaymentNotFound) Error() string {
	return "card payment not found: " + e.PaymentID.String()
}

// Is matches any ErrPaymentNotFound when the target carries a nil ID
func (e ErrPaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}

// ErrAlreadySettled indicates a settle attempt on a payment no longer on hold
type ErrAlreadySettled struct {
	PaymentID uuid.UUID
}

func (e ErrAlreadySettled) Error() string {
	return "card payment already settled: " + e.PaymentID.String()
}

// Is matches any ErrAlreadySettled when the target carries a nil ID
func (e ErrAlreadySettled) Is(target error) bool {
	t, ok := target.(ErrAlreadySettled)
	if !ok {
		return false
	}
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}

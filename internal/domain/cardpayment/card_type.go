package cardpayment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyName      = errors.New("card type name cannot be empty")
	ErrInvalidTaxRate = errors.New("tax rate must be between 0 and 10000 basis points")
)

// CardType is the configuration for one accepted card brand: its name and
// the processor's commission rate. The rate here is only a template; each
// payment captures the rate in force at sale time, so later configuration
// changes never rewrite history.
type CardType struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	TaxRateBps int64     `json:"tax_rate_bps"` // Basis points, 1 bp = 0.01%
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewCardType creates an active card type with the given commission rate
func NewCardType(name string, taxRateBps int64) (*CardType, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if taxRateBps < 0 || taxRateBps > 10000 {
		return nil, ErrInvalidTaxRate
	}

	return &CardType{
		ID:         uuid.New(),
		Name:       name,
		TaxRateBps: taxRateBps,
		Active:     true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}, nil
}

// TaxFor computes the commission for a gross amount in minor units,
// rounding half up.
func (t *CardType) TaxFor(gross int64) int64 {
	return (gross*t.TaxRateBps + 5000) / 10000
}

// ErrCardTypeNotFound indicates missing card type
type ErrCardTypeNotFound struct {
	CardTypeID uuid.UUID
}

func (e ErrCardTypeNotFound) Error() string {
	return "card type not found: " + e.CardTypeID.String()
}

// Is matches any ErrCardTypeNotFound when the target carries a nil ID
func (e ErrCardTypeNotFound) Is(target error) bool {
	t, ok := target.(ErrCardTypeNotFound)
	if !ok {
		return false
	}
	if t.CardTypeID == uuid.Nil {
		return true
	}
	return e.CardTypeID == t.CardTypeID
}

// ErrCardTypeInactive indicates a sale against a deactivated card type
type ErrCardTypeInactive struct {
	CardTypeID uuid.UUID
}

func (e ErrCardTypeInactive) Error() string {
	return "card type is inactive: " + e.CardTypeID.String()
}

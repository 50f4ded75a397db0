package account

import (
	"errors"
	"time"

	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyName     = errors.New("account name cannot be empty")
	ErrInvalidKind   = errors.New("account kind must be CASH or BANK")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Account is a named cash or bank bucket carrying the live balance.
// The balance is a materialized view over the transaction log: it is only
// ever written by transaction posting, never directly.
type Account struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Kind      shared.AccountKind `json:"kind"`
	Balance   int64              `json:"balance"` // Stored in cents/minor units; may go negative
	Version   int                `json:"version"` // For optimistic locking
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewAccount creates a new account with a zero balance. Opening balances are
// established by posting an opening transaction, not by seeding the field.
func NewAccount(name string, kind shared.AccountKind) (*Account, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	return &Account{
		ID:        uuid.New(),
		Name:      name,
		Kind:      kind,
		Balance:   0,
		Version:   1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// Credit adds the amount to the balance
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance += amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Debit subtracts the amount from the balance. There is no sufficient-funds
// check here: that is a policy decision made by the caller before posting,
// and corrections can legitimately push a balance negative.
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

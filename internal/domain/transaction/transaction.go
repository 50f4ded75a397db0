package transaction

import (
	"errors"
	"time"

	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrNonPositiveAmount = errors.New("transaction amount must be positive")
	ErrInvalidShape      = errors.New("transaction accounts do not match kind")
	ErrInvalidKind       = errors.New("invalid transaction kind")
)

// Transaction is an immutable ledger entry. Corrections are made by posting
// an offsetting transaction, never by editing history.
//
// A nil account side stands for the external world: an income has no source
// account, and a settlement transfer or commission expense has the card
// processor as its virtual counterparty. Nil sides receive no balance
// adjustment.
type Transaction struct {
	ID            uuid.UUID              `json:"id"`
	OccurredAt    time.Time              `json:"occurred_at"`
	Kind          shared.TransactionKind `json:"kind"`
	Category      string                 `json:"category"`
	Description   string                 `json:"description,omitempty"`
	Amount        int64                  `json:"amount"` // Stored in cents/minor units
	FromAccountID *uuid.UUID             `json:"from_account_id,omitempty"`
	ToAccountID   *uuid.UUID             `json:"to_account_id,omitempty"`
	ReferenceKind shared.ReferenceKind   `json:"reference_kind,omitempty"`
	ReferenceID   *uuid.UUID             `json:"reference_id,omitempty"`
	CreatedBy     string                 `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Validate checks the amount and the account shape for the transaction kind:
//
//	INCOME:   to required, from must be nil
//	EXPENSE:  to must be nil (from may be nil for an external payer)
//	TRANSFER: to required (from may be nil for an external source)
func (t *Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount <= 0 {
		return ErrNonPositiveAmount
	}

	switch t.Kind {
	case shared.TransactionKindIncome:
		if t.ToAccountID == nil || t.FromAccountID != nil {
			return ErrInvalidShape
		}
	case shared.TransactionKindExpense:
		if t.ToAccountID != nil {
			return ErrInvalidShape
		}
	case shared.TransactionKindTransfer:
		if t.ToAccountID == nil {
			return ErrInvalidShape
		}
	}

	return nil
}

package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Filter narrows transaction listings. Zero values mean "no constraint".
type Filter struct {
	AccountID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Repository manages the append-only transaction log
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// List returns transactions ordered newest-first, the order the balance
	// reconstructor replays them in.
	List(ctx context.Context, filter Filter) ([]*Transaction, error)
	Count(ctx context.Context, filter Filter) (int64, error)

	// SumCashFlows returns the same-day income into cash accounts and expense
	// out of cash accounts, used for the close-day expectation.
	SumCashFlows(ctx context.Context, date time.Time) (cashIn int64, cashOut int64, err error)

	// SumByKind returns total income and expense amounts for the date
	SumByKind(ctx context.Context, date time.Time) (income int64, expense int64, err error)

	// SignedSumForAccount replays the account's full history from zero as a
	// single aggregate: credits to the account minus debits from it.
	SignedSumForAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is matches any ErrTransactionNotFound when the target carries a nil ID
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

package dayops

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository manages the one-row-per-date daily balance snapshots.
// Lookups that find nothing return (nil, nil); rows are keyed by UTC date.
type BalanceRepository interface {
	Create(ctx context.Context, balance *DailyBalance) error
	GetByDate(ctx context.Context, date time.Time) (*DailyBalance, error)

	// ApplyDelta adjusts the closing figures of an unclosed row by the signed
	// per-kind deltas of a posted transaction. A closed row is left untouched.
	ApplyDelta(ctx context.Context, date time.Time, cashDelta, bankDelta int64) error

	Close(ctx context.Context, date time.Time, closedBy, notes string) error
	LatestBefore(ctx context.Context, date time.Time) (*DailyBalance, error)
	LatestClosedBefore(ctx context.Context, date time.Time) (*DailyBalance, error)
	ListUnclosedBefore(ctx context.Context, date time.Time) ([]*DailyBalance, error)
	WithTx(tx pgx.Tx) BalanceRepository
}

// OperationRepository manages the daily open/close workflow rows
type OperationRepository interface {
	// Create inserts the operation row; a uniqueness conflict on the date maps
	// to ErrDayAlreadyStarted.
	Create(ctx context.Context, op *DailyOperation) error
	GetByDate(ctx context.Context, date time.Time) (*DailyOperation, error)
	Update(ctx context.Context, op *DailyOperation) error
	ListOpenBefore(ctx context.Context, date time.Time) ([]*DailyOperation, error)
	WithTx(tx pgx.Tx) OperationRepository
}

// VarianceLogRepository manages the append-only variance audit log
type VarianceLogRepository interface {
	Create(ctx context.Context, entry *VarianceLogEntry) error
	ListByDate(ctx context.Context, date time.Time) ([]*VarianceLogEntry, error)
	WithTx(tx pgx.Tx) VarianceLogRepository
}

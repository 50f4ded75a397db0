package cardpayment

import (
	"context"
	"time"

	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CardTypeRepository manages card type configuration
type CardTypeRepository interface {
	Create(ctx context.Context, cardType *CardType) error
	GetByID(ctx context.Context, id uuid.UUID) (*CardType, error)
	List(ctx context.Context) ([]*CardType, error)
	Update(ctx context.Context, cardType *CardType) error
	WithTx(tx pgx.Tx) CardTypeRepository
}

// Repository manages card payment persistence
type Repository interface {
	Create(ctx context.Context, payment *CardPayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*CardPayment, error)
	List(ctx context.Context, status shared.CardPaymentStatus, limit, offset int) ([]*CardPayment, error)
	Count(ctx context.Context, status shared.CardPaymentStatus) (int64, error)

	// MarkReceived flips HOLD to RECEIVED with a compare-and-swap on the
	// status so that a concurrent duplicate settle fails instead of
	// double-posting. Returns ErrAlreadySettled when the row was not on hold.
	MarkReceived(ctx context.Context, id uuid.UUID, settlementAccountID uuid.UUID, receivedAt time.Time) error

	WithTx(tx pgx.Tx) Repository
}

package audit

import (
	"context"
	"strconv"

	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages the transactional audit outbox
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) Repository
}

// ArchiveRepository is the append-only event archive the reporting boundary
// reads from.
type ArchiveRepository interface {
	Store(ctx context.Context, event *ArchivedEvent) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*ArchivedEvent, error)
	ListByReference(ctx context.Context, referenceKind, referenceID string, limit, offset int) ([]*ArchivedEvent, error)
}

// ErrMessageNotFound indicates missing outbox message
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "audit outbox message not found: " + strconv.FormatInt(e.ID, 10)
}

// ErrEventNotFound indicates missing archived event
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "archived audit event not found: " + e.EventID.String()
}

// ErrDuplicateEvent indicates event uniqueness violation in the archive
type ErrDuplicateEvent struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "duplicate archived audit event: " + e.EventID.String()
}

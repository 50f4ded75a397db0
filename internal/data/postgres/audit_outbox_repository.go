package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/audit"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// AuditOutboxRepository implements the audit.Repository interface for PostgreSQL
type AuditOutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAuditOutboxRepository creates a new PostgreSQL audit outbox repository
func NewAuditOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) audit.Repository {
	return &AuditOutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
// This ensures the audit event is staged atomically with the operation it
// records.
func (r *AuditOutboxRepository) WithTx(tx pgx.Tx) audit.Repository {
	return &AuditOutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stages a new audit event in pending status.
// The event will be picked up by the outbox poller for publishing.
func (r *AuditOutboxRepository) Create(ctx context.Context, message *audit.Message) error {
	query := `
		INSERT INTO audit_outbox (event_id, event_type, reference_kind, reference_id, actor, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		message.EventID,
		message.EventType,
		message.ReferenceKind,
		message.ReferenceID,
		message.Actor,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)

	if err != nil {
		r.logger.Error("Failed to create audit outbox message",
			"event_id", message.EventID.String(),
			"event_type", string(message.EventType),
			"error", err,
		)
		return fmt.Errorf("failed to create audit outbox message: %w", err)
	}

	return nil
}

// GetPending retrieves a batch of pending audit events ordered by creation time.
// This is used by the outbox poller to publish events in FIFO order.
func (r *AuditOutboxRepository) GetPending(ctx context.Context, limit int) ([]*audit.Message, error) {
	query := `
		SELECT id, event_id, event_type, reference_kind, reference_id, actor, payload, status, attempts, created_at, last_attempt_at
		FROM audit_outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, shared.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending audit outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending audit outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*audit.Message
	for rows.Next() {
		var message audit.Message
		err := rows.Scan(
			&message.ID,
			&message.EventID,
			&message.EventType,
			&message.ReferenceKind,
			&message.ReferenceID,
			&message.Actor,
			&message.Payload,
			&message.Status,
			&message.Attempts,
			&message.CreatedAt,
			&message.LastAttemptAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan audit outbox message", "error", err)
			return nil, fmt.Errorf("failed to scan audit outbox message: %w", err)
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over audit outbox messages", "error", err)
		return nil, fmt.Errorf("error iterating over audit outbox messages: %w", err)
	}

	return messages, nil
}

// UpdateStatus updates the message status and last attempt timestamp.
// Returns ErrMessageNotFound if the message doesn't exist.
func (r *AuditOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	query := `
		UPDATE audit_outbox
		SET status = $1, last_attempt_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update audit outbox message status",
			"id", id,
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to update audit outbox message status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return audit.ErrMessageNotFound{ID: id}
	}

	return nil
}

// IncrementAttempts increments the retry counter and updates last attempt time
func (r *AuditOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	query := `
		UPDATE audit_outbox
		SET attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to increment audit outbox message attempts",
			"id", id,
			"error", err,
		)
		return fmt.Errorf("failed to increment audit outbox message attempts: %w", err)
	}

	if result.RowsAffected() == 0 {
		return audit.ErrMessageNotFound{ID: id}
	}

	return nil
}

// Delete permanently removes a message from the outbox.
// This is typically called after the event is published.
func (r *AuditOutboxRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM audit_outbox
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete audit outbox message",
			"id", id,
			"error", err,
		)
		return fmt.Errorf("failed to delete audit outbox message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return audit.ErrMessageNotFound{ID: id}
	}

	return nil
}

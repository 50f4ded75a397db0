package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/domain/audit"
	"github.com/fuelstation-ledger/internal/platform/messaging/producers"
)

// AuditEventHandler archives audit events consumed from Kafka into MongoDB
type AuditEventHandler struct {
	archiveRepo audit.ArchiveRepository
	producer    producers.DeadLetterPublisher
	logger      *slog.Logger
}

// NewAuditEventHandler creates a new handler
func NewAuditEventHandler(
	logger *slog.Logger,
	archiveRepo audit.ArchiveRepository,
	producer producers.DeadLetterPublisher,
) *AuditEventHandler {
	return &AuditEventHandler{
		archiveRepo: archiveRepo,
		producer:    producer,
		logger:      logger,
	}
}

// HandleMessage processes Kafka messages. Undecodable payloads go to the
// DLQ; archive failures are returned so the offset stays uncommitted and
// Kafka redelivers.
func (h *AuditEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var envelope audit.Envelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal audit event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	h.logger.Info("Received audit event for archiving",
		"event_id", envelope.EventID.String(),
		"event_type", string(envelope.EventType),
		"reference_kind", envelope.ReferenceKind,
		"reference_id", envelope.ReferenceID,
	)

	archived := &audit.ArchivedEvent{
		Envelope:   envelope,
		ArchivedAt: time.Now().UTC(),
	}

	if err := h.archiveRepo.Store(ctx, archived); err != nil {
		// At-least-once delivery: a redelivered event is already archived
		if errors.As(err, &audit.ErrDuplicateEvent{}) {
			h.logger.Info("Audit event already archived, skipping", "event_id", envelope.EventID.String())
			return nil
		}
		h.logger.Error("Failed to archive audit event",
			"event_id", envelope.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("archiving audit event %s failed: %w", envelope.EventID.String(), err)
	}

	h.logger.Info("Successfully archived audit event", "event_id", envelope.EventID.String())
	return nil // Success, commit offset
}

package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fuelstation-ledger/internal/config"
	"github.com/fuelstation-ledger/internal/domain/audit"
	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/fuelstation-ledger/internal/platform/messaging/producers"
)

// Poller drains the audit outbox to the Kafka audit topic. Messages are
// published in FIFO batches; a message that keeps failing past the retry
// budget is parked as FAILED_TO_PUBLISH for operator attention.
type Poller struct {
	outboxRepo       audit.Repository
	publisher        producers.MessagePublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo audit.Repository,
	publisher producers.MessagePublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting audit outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Audit outbox poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.logger.Debug("Audit outbox poller tick: processing pending messages")
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending audit messages", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending audit messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending audit messages found.")
		return nil
	}

	p.logger.Info("Fetched pending audit messages", "count", len(messages))

	for _, msg := range messages {
		err := p.publisher.Publish(ctx, msg.EventID.String(), msg.Envelope())
		if err != nil {
			p.logger.Error("Failed to publish audit message",
				"outbox_id", msg.ID, "event_id", msg.EventID.String(), "current_attempts", msg.Attempts, "error", err,
			)

			if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
				p.logger.Error("Failed to increment attempts for audit message", "outbox_id", msg.ID, "error", errInc)
				continue
			}

			if msg.Attempts+1 >= p.maxRetryAttempts {
				p.logger.Warn("Max retry attempts reached for audit message, marking as FAILED_TO_PUBLISH",
					"outbox_id", msg.ID, "event_id", msg.EventID.String(), "attempts_made", msg.Attempts+1,
				)
				if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
					p.logger.Error("Failed to update audit message status to FAILED_TO_PUBLISH after max retries", "outbox_id", msg.ID, "error", errUpdate)
				}
			}
			continue
		}

		// The Kafka topic and the Mongo archive are the durable record from
		// here on; the staged copy has served its purpose.
		if err := p.outboxRepo.Delete(ctx, msg.ID); err != nil {
			p.logger.Error("Published audit message but failed to delete it from the outbox",
				"outbox_id", msg.ID, "event_id", msg.EventID.String(), "error", err,
			)
			continue
		}

		p.logger.Info("Successfully published audit message", "outbox_id", msg.ID, "event_id", msg.EventID.String(), "event_type", string(msg.EventType))
	}
	return nil
}

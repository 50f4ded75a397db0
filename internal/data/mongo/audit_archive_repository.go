package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fuelstation-ledger/internal/domain/audit"
)

const (
	// ArchiveCollectionName is the name of the audit event collection in MongoDB
	ArchiveCollectionName = "audit_events"
)

// AuditArchiveRepository implements the audit.ArchiveRepository interface for MongoDB
type AuditArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditArchiveRepository creates a new MongoDB audit archive repository
func NewAuditArchiveRepository(logger *slog.Logger, db *mongo.Database) audit.ArchiveRepository {
	return &AuditArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Store archives an audit event after checking for duplicates.
// Kafka delivers at least once, so a redelivered event is dropped silently.
func (r *AuditArchiveRepository) Store(ctx context.Context, event *audit.ArchivedEvent) error {
	collection := r.db.Collection(ArchiveCollectionName)

	existing, err := r.GetByEventID(ctx, event.EventID)
	if err != nil && !isNotFound(err) {
		r.logger.Error("Failed to check for existing audit event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to check for existing audit event: %w", err)
	}

	if existing != nil {
		return audit.ErrDuplicateEvent{EventID: event.EventID}
	}

	_, err = collection.InsertOne(ctx, event)
	if err != nil {
		r.logger.Error("Failed to store audit event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to store audit event: %w", err)
	}

	return nil
}

// GetByEventID retrieves an archived event by its event ID.
// Returns ErrEventNotFound if no event exists with the given ID.
func (r *AuditArchiveRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*audit.ArchivedEvent, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"event_id": eventID}
	var event audit.ArchivedEvent
	err := collection.FindOne(ctx, filter).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrEventNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get audit event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}

	return &event, nil
}

// ListByReference retrieves paginated events for a ledger record.
// Results are sorted by occurrence time in descending order (newest first).
func (r *AuditArchiveRepository) ListByReference(ctx context.Context, referenceKind, referenceID string, limit, offset int) ([]*audit.ArchivedEvent, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{
		"reference_kind": referenceKind,
		"reference_id":   referenceID,
	}
	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list audit events",
			"reference_kind", referenceKind,
			"reference_id", referenceID,
			"error", err)
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*audit.ArchivedEvent
	if err := cursor.All(ctx, &events); err != nil {
		r.logger.Error("Failed to decode audit events",
			"reference_kind", referenceKind,
			"reference_id", referenceID,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}

	return events, nil
}

func isNotFound(err error) bool {
	var notFound audit.ErrEventNotFound
	return errors.As(err, &notFound)
}

package audit

import (
	"encoding/json"
	"time"

	"github.com/fuelstation-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// EventType identifies the ledger operation an audit event records
type EventType string

const (
	EventTransactionPosted EventType = "transaction.posted"
	EventDayOpened         EventType = "day.opened"
	EventDayClosed         EventType = "day.closed"
	EventDayAutoClosed     EventType = "day.auto_closed"
	EventCardSaleRecorded  EventType = "card_payment.recorded"
	EventCardSettled       EventType = "card_payment.settled"
)

// Message is an audit event staged in the transactional outbox. It is
// written in the same database transaction as the operation it records and
// published to the audit topic by the poller.
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	EventType     EventType           `json:"event_type"`
	ReferenceKind string              `json:"reference_kind"`
	ReferenceID   string              `json:"reference_id"`
	Actor         string              `json:"actor"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage stages an audit event with its payload serialized to JSON
func NewMessage(eventType EventType, referenceKind, referenceID, actor string, payload interface{}) (*Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       uuid.New(),
		EventType:     eventType,
		ReferenceKind: referenceKind,
		ReferenceID:   referenceID,
		Actor:         actor,
		Payload:       body,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// Envelope is the wire format published to the audit topic and archived by
// the reporting side.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id" bson:"event_id"`
	EventType     EventType       `json:"event_type" bson:"event_type"`
	ReferenceKind string          `json:"reference_kind" bson:"reference_kind"`
	ReferenceID   string          `json:"reference_id" bson:"reference_id"`
	Actor         string          `json:"actor" bson:"actor"`
	OccurredAt    time.Time       `json:"occurred_at" bson:"occurred_at"`
	Payload       json.RawMessage `json:"payload" bson:"payload"`
}

// Envelope builds the publishable form of the staged message
func (m *Message) Envelope() *Envelope {
	return &Envelope{
		EventID:       m.EventID,
		EventType:     m.EventType,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		Actor:         m.Actor,
		OccurredAt:    m.CreatedAt,
		Payload:       m.Payload,
	}
}

// ArchivedEvent is the Mongo document the archiver stores for the read-only
// reporting boundary.
type ArchivedEvent struct {
	Envelope   `bson:",inline"`
	ArchivedAt time.Time `json:"archived_at" bson:"archived_at"`
}

package audit

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelstation-ledger/internal/domain/shared"
)

func TestNewMessage(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		payload := map[string]interface{}{"amount": 10000, "category": "fuel_sale"}

		msg, err := NewMessage(EventTransactionPosted, "transactions", "txn-1", "cashier-1", payload)
		require.NoError(t, err)
		require.NotNil(t, msg)

		assert.NotEqual(t, uuid.Nil, msg.EventID)
		assert.Equal(t, EventTransactionPosted, msg.EventType)
		assert.Equal(t, "transactions", msg.ReferenceKind)
		assert.Equal(t, "txn-1", msg.ReferenceID)
		assert.Equal(t, "cashier-1", msg.Actor)
		assert.Equal(t, shared.OutboxStatusPending, msg.Status)
		assert.Equal(t, 0, msg.Attempts)
		assert.Nil(t, msg.LastAttemptAt)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, "fuel_sale", decoded["category"])
	})

	t.Run("UnserializablePayload", func(t *testing.T) {
		_, err := NewMessage(EventDayOpened, "daily_operations", "2025-03-14", "manager-1", make(chan int))
		assert.Error(t, err)
	})
}

func TestMessage_StatusTransitions(t *testing.T) {
	msg, err := NewMessage(EventDayClosed, "daily_operations", "2025-03-14", "manager-1", nil)
	require.NoError(t, err)

	msg.IncrementAttempts()
	assert.Equal(t, 1, msg.Attempts)
	assert.NotNil(t, msg.LastAttemptAt)

	msg.MarkAsProcessed()
	assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)

	msg.MarkAsFailed()
	assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)
}

func TestMessage_Envelope(t *testing.T) {
	msg, err := NewMessage(EventCardSettled, "card_payments", "pay-1", "manager-1", map[string]int{"net": 9800})
	require.NoError(t, err)

	env := msg.Envelope()

	assert.Equal(t, msg.EventID, env.EventID)
	assert.Equal(t, msg.EventType, env.EventType)
	assert.Equal(t, msg.ReferenceKind, env.ReferenceKind)
	assert.Equal(t, msg.ReferenceID, env.ReferenceID)
	assert.Equal(t, msg.Actor, env.Actor)
	assert.Equal(t, msg.CreatedAt, env.OccurredAt)
	assert.Equal(t, msg.Payload, env.Payload)
}

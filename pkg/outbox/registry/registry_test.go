package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	"github.com/farhanmajid/bazario-backend/pkg/outbox"
	"github.com/farhanmajid/bazario-backend/pkg/outbox/payloads"
)

func newTestRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{ProjectID: "test", TopicID: "domain-events"})
	require.NoError(t, err)
	return reg
}

func encodeEnvelope(t *testing.T, data interface{}) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	return raw
}

func TestResolveDecodesTypedPayload(t *testing.T) {
	reg := newTestRegistry(t)
	orderID := uuid.New()
	userID := uuid.New()

	row := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: encodeEnvelope(t, payloads.OrderCreatedEvent{
			OrderID:    orderID,
			UserID:     userID,
			CompanyIDs: []uuid.UUID{uuid.New()},
			TotalCents: 23000,
		}),
	}

	resolved, err := reg.Resolve(row)
	require.NoError(t, err)
	require.Equal(t, "domain-events", resolved.Descriptor.Topic)

	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	require.True(t, ok)
	require.Equal(t, orderID, payload.OrderID)
	require.Equal(t, int64(23000), payload.TotalCents)
}

func TestResolveRejectsUnknownEventType(t *testing.T) {
	reg := newTestRegistry(t)
	row := models.OutboxEvent{
		EventType:     "unknown_event",
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       encodeEnvelope(t, map[string]string{"k": "v"}),
	}

	_, err := reg.Resolve(row)
	require.Error(t, err)
	var nonRetryable NonRetryableError
	require.True(t, errors.As(err, &nonRetryable))
}

func TestResolveRejectsAggregateMismatch(t *testing.T) {
	reg := newTestRegistry(t)
	row := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateUser,
		AggregateID:   uuid.New(),
		Payload:       encodeEnvelope(t, payloads.OrderCreatedEvent{}),
	}

	_, err := reg.Resolve(row)
	require.Error(t, err)
	var nonRetryable NonRetryableError
	require.True(t, errors.As(err, &nonRetryable))
}

func TestResolveRejectsEmptyPayload(t *testing.T) {
	reg := newTestRegistry(t)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    json.RawMessage("null"),
	})
	require.NoError(t, err)

	row := models.OutboxEvent{
		EventType:     enums.EventOrderUpdated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelope,
	}

	_, err = reg.Resolve(row)
	require.Error(t, err)
}

package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column on outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder             OutboxAggregateType = "order"
	AggregateFulfillmentStatus OutboxAggregateType = "fulfillment_status"
	AggregateUser              OutboxAggregateType = "user"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateFulfillmentStatus,
	AggregateUser,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column on outbox_events.
type OutboxEventType string

const (
	EventOrderCreated             OutboxEventType = "order_created"
	EventOrderUpdated             OutboxEventType = "order_updated"
	EventFulfillmentStatusChanged OutboxEventType = "fulfillment_status_changed"
	EventUserInvited              OutboxEventType = "user_invited"
	EventInvitationAccepted       OutboxEventType = "invitation_accepted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderUpdated,
	EventFulfillmentStatusChanged,
	EventUserInvited,
	EventInvitationAccepted,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

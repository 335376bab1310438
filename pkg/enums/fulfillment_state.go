package enums

import "fmt"

// FulfillmentState tracks a company's progress on its slice of an order.
type FulfillmentState string

const (
	FulfillmentStatePending   FulfillmentState = "pending"
	FulfillmentStateShipped   FulfillmentState = "shipped"
	FulfillmentStateDelivered FulfillmentState = "delivered"
	FulfillmentStateCanceled  FulfillmentState = "canceled"
)

var validFulfillmentStates = []FulfillmentState{
	FulfillmentStatePending,
	FulfillmentStateShipped,
	FulfillmentStateDelivered,
	FulfillmentStateCanceled,
}

// String implements fmt.Stringer.
func (f FulfillmentState) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentState.
func (f FulfillmentState) IsValid() bool {
	for _, candidate := range validFulfillmentStates {
		if candidate == f {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted out of the state.
func (f FulfillmentState) IsTerminal() bool {
	return f == FulfillmentStateDelivered || f == FulfillmentStateCanceled
}

// ParseFulfillmentState converts raw input into a FulfillmentState.
func ParseFulfillmentState(value string) (FulfillmentState, error) {
	for _, candidate := range validFulfillmentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment state %q", value)
}

package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/pkg/enums"
)

// LineInput is one submitted product slot. ID is set when the client intends
// to update an existing line; amounts are never accepted from the client.
type LineInput struct {
	ID        *uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// CreateInput carries everything needed to place an order.
type CreateInput struct {
	UserID       uuid.UUID
	Location     string
	DeliveryTime time.Time
	Lines        []LineInput
	ActorRole    string
}

// UpdateInput carries a replacement line set for reconciliation. A nil Lines
// slice leaves the existing lines untouched; an empty non-nil slice removes
// every line.
type UpdateInput struct {
	OrderID      uuid.UUID
	UserID       uuid.UUID
	Location     *string
	DeliveryTime *time.Time
	Lines        []LineInput
	ActorRole    string
}

// StatusUpdateInput captures a company's fulfillment transition.
type StatusUpdateInput struct {
	OrderID     uuid.UUID
	CompanyID   uuid.UUID
	Status      enums.FulfillmentState
	ActorUserID uuid.UUID
	ActorRole   string
}

// LineView is the customer-facing line representation.
type LineView struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amount"`
}

// StatusView is one company's slice of the order status board.
type StatusView struct {
	CompanyID   uuid.UUID              `json:"company_id"`
	CompanyName string                 `json:"company_name"`
	Status      enums.FulfillmentState `json:"status"`
	LastUpdated time.Time              `json:"last_updated"`
}

// FulfillmentView is the status row echoed back after a transition request.
type FulfillmentView struct {
	OrderID     uuid.UUID              `json:"order_id"`
	CompanyID   uuid.UUID              `json:"company_id"`
	Status      enums.FulfillmentState `json:"status"`
	LastUpdated time.Time              `json:"last_updated"`
}

// OrderView is the full customer-facing order.
type OrderView struct {
	ID           uuid.UUID    `json:"id"`
	UserID       uuid.UUID    `json:"user_id"`
	Location     string       `json:"location"`
	DeliveryTime time.Time    `json:"delivery_time"`
	TotalCents   int64        `json:"total_price"`
	Lines        []LineView   `json:"order_items"`
	Statuses     []StatusView `json:"statuses"`
	CreatedAt    time.Time    `json:"created_at"`
}

// CompanyOrderView is the redacted slice a fulfilling company sees: only its
// own lines and a total restricted to them.
type CompanyOrderView struct {
	OrderID      uuid.UUID              `json:"order_id"`
	Location     string                 `json:"location"`
	DeliveryTime time.Time              `json:"delivery_time"`
	Status       enums.FulfillmentState `json:"status"`
	Lines        []LineView             `json:"order_items"`
	TotalCents   int64                  `json:"total_price"`
	CreatedAt    time.Time              `json:"created_at"`
}

// OrderList is a cursor page of customer orders.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// CompanyOrderList is a cursor page of redacted company orders.
type CompanyOrderList struct {
	Orders     []CompanyOrderView `json:"orders"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/pkg/enums"
)

// FulfillmentStatus tracks one company's slice of an order. The composite
// unique index is the invariant: at most one row per (order, company) pair,
// created only by order fan-out and never deleted while the order exists.
type FulfillmentStatus struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_fulfillment_statuses_order_company"`
	CompanyID   uuid.UUID              `gorm:"column:company_id;type:uuid;not null;uniqueIndex:ux_fulfillment_statuses_order_company"`
	Status      enums.FulfillmentState `gorm:"column:status;type:text;not null;default:'pending'"`
	LastUpdated time.Time              `gorm:"column:last_updated;autoUpdateTime"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

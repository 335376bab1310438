package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is the customer-facing aggregate. TotalCents is a write-time cache:
// every mutating transaction recomputes it from the line amounts before commit.
type Order struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Location     string              `gorm:"column:location;not null"`
	DeliveryTime time.Time           `gorm:"column:delivery_time;not null"`
	TotalCents   int64               `gorm:"column:total_cents;not null;default:0"`
	Lines        []OrderLine         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Statuses     []FulfillmentStatus `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine is one product slot within an order. AmountCents is the snapshot
// of quantity times the product's effective price at last write; it is never
// accepted from the client and only rewritten through reconciliation.
type OrderLine struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity    int       `gorm:"column:quantity;not null"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

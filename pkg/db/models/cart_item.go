package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem mirrors OrderLine at single-user scale: AmountCents is recomputed
// from current product pricing on every write.
type CartItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID      uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity    int       `gorm:"column:quantity;not null"`
	AmountCents int64     `gorm:"column:amount_cents;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

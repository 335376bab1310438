package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart holds a customer's pending items. One cart per user, enforced by the
// unique index; the total is derived from item amounts on read, never stored.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

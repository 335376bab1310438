package models

import (
	"time"

	"github.com/google/uuid"
)

// Company represents a selling tenant. Names are intentionally not unique;
// two companies may share a display name.
type Company struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	OwnerUserID uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null;uniqueIndex"`
	Members     []User    `gorm:"foreignKey:CompanyID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

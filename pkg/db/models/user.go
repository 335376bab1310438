package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/pkg/enums"
)

// User represents the canonical identity entity. Company membership is a flat
// back-reference: staff and admins point at the company they work for.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FirstName    string         `gorm:"column:first_name;not null;default:''"`
	LastName     string         `gorm:"column:last_name;not null;default:''"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	CompanyID    *uuid.UUID     `gorm:"column:company_id;type:uuid"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

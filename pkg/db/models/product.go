package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a company's listing. CompanyID is nullable because
// seeded catalog rows may exist before any company claims them; such rows
// never contribute a fulfillment row to orders.
type Product struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string     `gorm:"column:name;not null"`
	Description     string     `gorm:"column:description;not null;default:''"`
	StockQty        int        `gorm:"column:stock_qty;not null;default:0"`
	PriceCents      int64      `gorm:"column:price_cents;not null"`
	DiscountPercent float64    `gorm:"column:discount_percent;not null;default:0"`
	CompanyID       *uuid.UUID `gorm:"column:company_id;type:uuid"`
	CategoryID      uuid.UUID  `gorm:"column:category_id;type:uuid;not null"`
	CreatedByID     uuid.UUID  `gorm:"column:created_by_id;type:uuid;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

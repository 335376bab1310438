package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

// ListFilters narrows the public product listing.
type ListFilters struct {
	CategoryID *uuid.UUID
	CompanyID  *uuid.UUID
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, updates map[string]any) error
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Product, *pagination.Cursor, error)
	FindCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

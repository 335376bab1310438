package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
)

// Repository defines persistence operations for cart data.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	FindProductByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}

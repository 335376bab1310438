package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	UpdateLine(ctx context.Context, line models.OrderLine) error
	DeleteLines(ctx context.Context, orderID uuid.UUID, lineIDs []uuid.UUID) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
	FindProductsByIDs(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error)
	FindCompaniesByIDs(ctx context.Context, companyIDs []uuid.UUID) ([]models.Company, error)
	UpsertFulfillmentStatuses(ctx context.Context, statuses []models.FulfillmentStatus) error
	FindFulfillmentStatus(ctx context.Context, orderID, companyID uuid.UUID) (*models.FulfillmentStatus, error)
	UpdateFulfillmentStatus(ctx context.Context, statusID uuid.UUID, updates map[string]any) error
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	ListCompanyOrders(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
}

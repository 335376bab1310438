package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) UpdateLine(ctx context.Context, line models.OrderLine) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("id = ? AND order_id = ?", line.ID, line.OrderID).
		Updates(map[string]any{
			"product_id":   line.ProductID,
			"quantity":     line.Quantity,
			"amount_cents": line.AmountCents,
		}).Error
}

func (r *repository) DeleteLines(ctx context.Context, orderID uuid.UUID, lineIDs []uuid.UUID) error {
	if len(lineIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("order_id = ? AND id IN ?", orderID, lineIDs).
		Delete(&models.OrderLine{}).Error
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Statuses").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) FindProductsByIDs(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindCompaniesByIDs(ctx context.Context, companyIDs []uuid.UUID) ([]models.Company, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	var companies []models.Company
	err := r.db.WithContext(ctx).
		Where("id IN ?", companyIDs).
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// UpsertFulfillmentStatuses inserts one row per (order, company) pair and
// silently skips pairs that already exist. The unique index makes the fan-out
// idempotent under concurrent writers.
func (r *repository) UpsertFulfillmentStatuses(ctx context.Context, statuses []models.FulfillmentStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "company_id"}},
			DoNothing: true,
		}).
		Create(&statuses).Error
}

func (r *repository) FindFulfillmentStatus(ctx context.Context, orderID, companyID uuid.UUID) (*models.FulfillmentStatus, error) {
	var status models.FulfillmentStatus
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND company_id = ?", orderID, companyID).
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *repository) UpdateFulfillmentStatus(ctx context.Context, statusID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.FulfillmentStatus{}).
		Where("id = ?", statusID).
		Updates(updates).Error
}

func (r *repository) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.listOrders(ctx, query, params)
}

func (r *repository) ListCompanyOrders(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id IN (?)", r.db.Model(&models.FulfillmentStatus{}).
			Select("order_id").
			Where("company_id = ?", companyID))
	return r.listOrders(ctx, query, params)
}

func (r *repository) listOrders(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Preload("Lines").
		Preload("Statuses").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

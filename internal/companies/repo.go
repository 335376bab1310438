package companies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

// Repository defines persistence operations for companies and membership.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, company *models.Company) (*models.Company, error)
	FindByID(ctx context.Context, companyID uuid.UUID) (*models.Company, error)
	FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Company, error)
	List(ctx context.Context, params pagination.Params) ([]models.Company, *pagination.Cursor, error)
	BindMember(ctx context.Context, userID, companyID uuid.UUID, role enums.UserRole) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a company repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, company *models.Company) (*models.Company, error) {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		return nil, err
	}
	return company, nil
}

func (r *repository) FindByID(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("id = ?", companyID).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) FindByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Company, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Company{})
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Company
	err = query.
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

func (r *repository) BindMember(ctx context.Context, userID, companyID uuid.UUID, role enums.UserRole) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"company_id": companyID,
			"role":       role,
		}).Error
}

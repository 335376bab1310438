package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/internal/pricing"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/pagination"
)

// Actor identifies who is performing a catalog mutation.
type Actor struct {
	UserID    uuid.UUID
	CompanyID *uuid.UUID
	Role      enums.UserRole
}

// CreateProductInput carries a new listing for the actor's company.
type CreateProductInput struct {
	Actor           Actor
	Name            string
	Description     string
	StockQty        int
	PriceCents      int64
	DiscountPercent float64
	CategoryID      uuid.UUID
}

// UpdateProductInput carries a partial edit; nil fields are left untouched.
type UpdateProductInput struct {
	Actor           Actor
	ProductID       uuid.UUID
	Name            *string
	Description     *string
	StockQty        *int
	PriceCents      *int64
	DiscountPercent *float64
	CategoryID      *uuid.UUID
}

// ProductView is the read model, echoing the computed effective price.
type ProductView struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	StockQty            int        `json:"stock_qty"`
	PriceCents          int64      `json:"price_cents"`
	DiscountPercent     float64    `json:"discount_percent"`
	EffectivePriceCents int64      `json:"effective_price_cents"`
	CompanyID           *uuid.UUID `json:"company_id,omitempty"`
	CategoryID          uuid.UUID  `json:"category_id"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ProductList is a cursor page of products.
type ProductList struct {
	Products   []ProductView `json:"products"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// CategoryView is the reference-data read model.
type CategoryView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Service defines catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*ProductView, error)
	Update(ctx context.Context, input UpdateProductInput) (*ProductView, error)
	Delete(ctx context.Context, actor Actor, productID uuid.UUID) error
	Get(ctx context.Context, productID uuid.UUID) (*ProductView, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ProductList, error)
	ListCategories(ctx context.Context) ([]CategoryView, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductView, error) {
	if err := requireCompanyActor(input.Actor); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	if _, err := s.repo.FindCategory(ctx, input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	product := &models.Product{
		Name:            input.Name,
		Description:     input.Description,
		StockQty:        input.StockQty,
		PriceCents:      input.PriceCents,
		DiscountPercent: input.DiscountPercent,
		CompanyID:       input.Actor.CompanyID,
		CategoryID:      input.CategoryID,
		CreatedByID:     input.Actor.UserID,
	}
	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return buildProductView(*product)
}

func (s *service) Update(ctx context.Context, input UpdateProductInput) (*ProductView, error) {
	if err := requireCompanyActor(input.Actor); err != nil {
		return nil, err
	}

	product, err := s.ownedProduct(ctx, input.Actor, input.ProductID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
		}
		updates["stock_qty"] = *input.StockQty
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.DiscountPercent != nil {
		if *input.DiscountPercent < 0 || *input.DiscountPercent > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
		}
		updates["discount_percent"] = *input.DiscountPercent
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategory(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		updates["category_id"] = *input.CategoryID
	}

	if len(updates) > 0 {
		if err := s.repo.UpdateProduct(ctx, product.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		product, err = s.repo.FindProduct(ctx, product.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
	}
	return buildProductView(*product)
}

func (s *service) Delete(ctx context.Context, actor Actor, productID uuid.UUID) error {
	if err := requireCompanyActor(actor); err != nil {
		return err
	}
	if _, err := s.ownedProduct(ctx, actor, productID); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*ProductView, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return buildProductView(*product)
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ProductList, error) {
	rows, next, err := s.repo.ListProducts(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	list := &ProductList{Products: make([]ProductView, 0, len(rows))}
	for _, row := range rows {
		view, err := buildProductView(row)
		if err != nil {
			return nil, err
		}
		list.Products = append(list.Products, *view)
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, CategoryView{ID: category.ID, Name: category.Name})
	}
	return views, nil
}

// ownedProduct loads a product and verifies it belongs to the actor's
// company. A product that exists but belongs elsewhere is forbidden, not
// hidden.
func (s *service) ownedProduct(ctx context.Context, actor Actor, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.CompanyID == nil || actor.CompanyID == nil || *product.CompanyID != *actor.CompanyID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another company")
	}
	return product, nil
}

func requireCompanyActor(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.Role.IsCompanyRole() || actor.CompanyID == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "company role required")
	}
	return nil
}

func buildProductView(product models.Product) (*ProductView, error) {
	effective, err := pricing.EffectivePriceCents(product.PriceCents, product.DiscountPercent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute effective price")
	}
	return &ProductView{
		ID:                  product.ID,
		Name:                product.Name,
		Description:         product.Description,
		StockQty:            product.StockQty,
		PriceCents:          product.PriceCents,
		DiscountPercent:     product.DiscountPercent,
		EffectivePriceCents: effective,
		CompanyID:           product.CompanyID,
		CategoryID:          product.CategoryID,
		CreatedAt:           product.CreatedAt,
	}, nil
}

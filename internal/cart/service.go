package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farhanmajid/bazario-backend/internal/pricing"
	dbpkg "github.com/farhanmajid/bazario-backend/pkg/db"
	"github.com/farhanmajid/bazario-backend/pkg/db/models"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the per-user cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, input AddItemInput) (*CartView, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// AddItemInput captures a request to place a product in the cart.
type AddItemInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// UpdateItemInput captures a quantity change for an existing cart item.
type UpdateItemInput struct {
	UserID   uuid.UUID
	ItemID   uuid.UUID
	Quantity int
}

// CartItemView is one cart row with its snapshot amount.
type CartItemView struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amount_cents"`
}

// CartView is the cart with its derived total.
type CartView struct {
	ID         uuid.UUID      `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	Items      []CartItemView `json:"items"`
	TotalCents int64          `json:"total_cents"`
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.loadOrCreate(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return buildCartView(cart), nil
}

// AddItem recomputes the line amount from current pricing. Adding a product
// already in the cart replaces that item's quantity instead of duplicating it.
func (s *service) AddItem(ctx context.Context, input AddItemInput) (*CartView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadOrCreate(ctx, repo, input.UserID)
		if err != nil {
			return err
		}

		product, err := repo.FindProductByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown product in cart item")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		amount, err := pricing.LineAmountCents(*product, input.Quantity)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByProduct(ctx, cart.ID, input.ProductID)
		switch {
		case err == nil:
			err = repo.UpdateItem(ctx, existing.ID, map[string]any{
				"quantity":     input.Quantity,
				"amount_cents": amount,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item := &models.CartItem{
				CartID:      cart.ID,
				ProductID:   input.ProductID,
				Quantity:    input.Quantity,
				AmountCents: amount,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart item")
		}

		cart, err = repo.FindByUser(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		view = buildCartView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) (*CartView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadOrCreate(ctx, repo, input.UserID)
		if err != nil {
			return err
		}

		item, err := repo.FindItem(ctx, cart.ID, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart item")
		}

		product, err := repo.FindProductByID(ctx, item.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		amount, err := pricing.LineAmountCents(*product, input.Quantity)
		if err != nil {
			return err
		}

		err = repo.UpdateItem(ctx, item.ID, map[string]any{
			"quantity":     input.Quantity,
			"amount_cents": amount,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}

		cart, err = repo.FindByUser(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		view = buildCartView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		if _, err := repo.FindItem(ctx, cart.ID, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart item")
		}
		if err := repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}

		cart, err = repo.FindByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		view = buildCartView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// loadOrCreate returns the user's cart, creating the single allowed row on
// first touch.
func (s *service) loadOrCreate(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	created, err := repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			if cart, retryErr := repo.FindByUser(ctx, userID); retryErr == nil {
				return cart, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func buildCartView(cart *models.Cart) *CartView {
	view := &CartView{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]CartItemView, 0, len(cart.Items)),
	}
	for _, item := range cart.Items {
		view.Items = append(view.Items, CartItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			AmountCents: item.AmountCents,
		})
		view.TotalCents += item.AmountCents
	}
	return view
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/api/middleware"
	"github.com/farhanmajid/bazario-backend/api/responses"
	"github.com/farhanmajid/bazario-backend/api/validators"
	catalogsvc "github.com/farhanmajid/bazario-backend/internal/catalog"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
)

type createProductRequest struct {
	Name            string    `json:"name" validate:"required,min=1,max=255"`
	Description     string    `json:"description,omitempty"`
	StockQty        int       `json:"stock_qty" validate:"min=0"`
	PriceCents      int64     `json:"price_cents" validate:"required,gt=0"`
	DiscountPercent float64   `json:"discount_percent" validate:"min=0,max=100"`
	CategoryID      uuid.UUID `json:"category_id" validate:"required"`
}

type updateProductRequest struct {
	Name            *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description     *string    `json:"description,omitempty"`
	StockQty        *int       `json:"stock_qty,omitempty" validate:"omitempty,min=0"`
	PriceCents      *int64     `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	DiscountPercent *float64   `json:"discount_percent,omitempty" validate:"omitempty,min=0,max=100"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
}

func catalogActor(r *http.Request) catalogsvc.Actor {
	userID, _ := middleware.ActorUserID(r.Context())
	return catalogsvc.Actor{
		UserID:    userID,
		CompanyID: middleware.ActorCompanyID(r.Context()),
		Role:      middleware.ActorRole(r.Context()),
	}
}

// ProductsList serves the public catalog with optional category and company filters.
func ProductsList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := validators.PaginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		companyID, err := validators.ParseQueryUUID(r, "company_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), catalogsvc.ListFilters{CategoryID: categoryID, CompanyID: companyID}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func ProductsGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.PathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func CategoriesList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, categories)
	}
}

// CompanyProductsCreate adds a listing owned by the actor's company.
func CompanyProductsCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), catalogsvc.CreateProductInput{
			Actor:           catalogActor(r),
			Name:            body.Name,
			Description:     body.Description,
			StockQty:        body.StockQty,
			PriceCents:      body.PriceCents,
			DiscountPercent: body.DiscountPercent,
			CategoryID:      body.CategoryID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func CompanyProductsUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.PathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Update(r.Context(), catalogsvc.UpdateProductInput{
			Actor:           catalogActor(r),
			ProductID:       productID,
			Name:            body.Name,
			Description:     body.Description,
			StockQty:        body.StockQty,
			PriceCents:      body.PriceCents,
			DiscountPercent: body.DiscountPercent,
			CategoryID:      body.CategoryID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func CompanyProductsDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.PathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), catalogActor(r), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/farhanmajid/bazario-backend/api/middleware"
	"github.com/farhanmajid/bazario-backend/api/responses"
	"github.com/farhanmajid/bazario-backend/api/validators"
	orderssvc "github.com/farhanmajid/bazario-backend/internal/orders"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
)

type orderLinePayload struct {
	ID        *uuid.UUID `json:"id,omitempty"`
	ProductID uuid.UUID  `json:"product" validate:"required"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
}

// placeOrderRequest serves both create and update. Updates may omit
// order_items entirely (lines stay as they are) or send an empty array to
// clear the order, so the minimum length is enforced on the create path only.
type placeOrderRequest struct {
	ID           *uuid.UUID         `json:"id,omitempty"`
	Location     *string            `json:"location,omitempty"`
	DeliveryTime *time.Time         `json:"delivery_time,omitempty"`
	Lines        []orderLinePayload `json:"order_items" validate:"omitempty,dive"`
}

type statusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// toLineInputs preserves the nil/empty distinction: a request without
// order_items maps to nil, which the service reads as "leave lines alone".
func toLineInputs(payload []orderLinePayload) []orderssvc.LineInput {
	if payload == nil {
		return nil
	}
	lines := make([]orderssvc.LineInput, 0, len(payload))
	for _, line := range payload {
		lines = append(lines, orderssvc.LineInput{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return lines
}

// OrdersPlace creates an order, or reconciles an existing one when the body
// carries an id.
func OrdersPlace(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, ok := middleware.ActorUserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := middleware.RoleFromContext(r.Context())

		if body.ID != nil {
			view, err := svc.Update(r.Context(), orderssvc.UpdateInput{
				OrderID:      *body.ID,
				UserID:       userID,
				Location:     body.Location,
				DeliveryTime: body.DeliveryTime,
				Lines:        toLineInputs(body.Lines),
				ActorRole:    role,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		if body.Location == nil || *body.Location == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "location required"))
			return
		}
		if body.DeliveryTime == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "delivery_time required"))
			return
		}
		if len(body.Lines) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_items required"))
			return
		}

		view, err := svc.Create(r.Context(), orderssvc.CreateInput{
			UserID:       userID,
			Location:     *body.Location,
			DeliveryTime: *body.DeliveryTime,
			Lines:        toLineInputs(body.Lines),
			ActorRole:    role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func OrdersListMine(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, ok := middleware.ActorUserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		params, err := validators.PaginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func OrdersGetMine(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, ok := middleware.ActorUserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		orderID, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CompanyOrdersList serves the fulfillment queue scoped to the actor's company.
func CompanyOrdersList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		companyID := middleware.ActorCompanyID(r.Context())
		if companyID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no company bound to account"))
			return
		}

		params, err := validators.PaginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForCompany(r.Context(), *companyID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func CompanyOrdersGet(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		companyID := middleware.ActorCompanyID(r.Context())
		if companyID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no company bound to account"))
			return
		}

		orderID, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetForCompany(r.Context(), orderID, *companyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func CompanyOrdersUpdateStatus(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, ok := middleware.ActorUserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		companyID := middleware.ActorCompanyID(r.Context())
		if companyID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no company bound to account"))
			return
		}

		orderID, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := enums.ParseFulfillmentState(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment status"))
			return
		}

		view, err := svc.UpdateStatus(r.Context(), orderssvc.StatusUpdateInput{
			OrderID:     orderID,
			CompanyID:   *companyID,
			Status:      state,
			ActorUserID: userID,
			ActorRole:   middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

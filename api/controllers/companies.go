package controllers

import (
	"net/http"
	"strings"

	"github.com/farhanmajid/bazario-backend/api/middleware"
	"github.com/farhanmajid/bazario-backend/api/responses"
	"github.com/farhanmajid/bazario-backend/api/validators"
	companiessvc "github.com/farhanmajid/bazario-backend/internal/companies"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
)

type createCompanyRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CompaniesCreate registers a company owned by the authenticated user.
func CompaniesCreate(svc companiessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company service unavailable"))
			return
		}

		userID, ok := middleware.ActorUserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var body createCompanyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), userID, strings.TrimSpace(body.Name))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func CompaniesGet(svc companiessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company service unavailable"))
			return
		}

		companyID, err := validators.PathUUID(r, "companyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		includeMembers := r.URL.Query().Get("include_members") == "true"

		view, err := svc.Get(r.Context(), companyID, includeMembers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func CompaniesList(svc companiessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company service unavailable"))
			return
		}

		params, err := validators.PaginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

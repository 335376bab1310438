package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/farhanmajid/bazario-backend/api/middleware"
	"github.com/farhanmajid/bazario-backend/api/responses"
	"github.com/farhanmajid/bazario-backend/api/validators"
	invitessvc "github.com/farhanmajid/bazario-backend/internal/invites"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
)

type createInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

type acceptInviteRequest struct {
	Password             *string `json:"password,omitempty"`
	PasswordConfirmation *string `json:"password_confirmation,omitempty"`
}

// InvitesCreate issues a company membership invitation. Admin only.
func InvitesCreate(svc invitessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invite service unavailable"))
			return
		}

		userID, ok := middleware.ActorUserID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		var body createInviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseUserRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		view, err := svc.Create(r.Context(), invitessvc.CreateInput{
			Actor: invitessvc.Actor{
				UserID:    userID,
				CompanyID: middleware.ActorCompanyID(r.Context()),
				Role:      middleware.ActorRole(r.Context()),
			},
			Email: body.Email,
			Role:  role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// InvitesAccept redeems an invite token. Public, single use.
func InvitesAccept(svc invitessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invite service unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invite token required"))
			return
		}

		// The body is optional; accepting without a password keeps the
		// placeholder credentials until the user sets one.
		var body acceptInviteRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		view, err := svc.Accept(r.Context(), invitessvc.AcceptInput{
			Token:                token,
			Password:             body.Password,
			PasswordConfirmation: body.PasswordConfirmation,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

package middleware

import (
	"net/http"

	"github.com/farhanmajid/bazario-backend/api/responses"
	"github.com/farhanmajid/bazario-backend/pkg/enums"
	pkgerrors "github.com/farhanmajid/bazario-backend/pkg/errors"
	"github.com/farhanmajid/bazario-backend/pkg/logger"
)

// RequireCompanyRole admits only company-bound admins and staff.
func RequireCompanyRole(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := ActorRole(r.Context())
			if !role.IsCompanyRole() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company role required"))
				return
			}
			if ActorCompanyID(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no company bound to account"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits company admins only.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ActorRole(r.Context()) != enums.UserRoleAdmin {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			if ActorCompanyID(r.Context()) == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no company bound to account"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

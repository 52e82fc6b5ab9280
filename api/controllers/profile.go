package controllers

import (
	"net/http"

	"github.com/mercadolocal/mercados-backend/api/middleware"
	"github.com/mercadolocal/mercados-backend/api/responses"
	"github.com/mercadolocal/mercados-backend/api/validators"
	accountsvc "github.com/mercadolocal/mercados-backend/internal/accounts"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
)

type profileResponse struct {
	Profile *accountsvc.Profile `json:"profile"`
}

type updateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// GetProfile returns the authenticated user's account details.
func GetProfile(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		responses.WriteSuccess(w, profileResponse{Profile: &accountsvc.Profile{
			ID:        principal.ID,
			Email:     principal.Email,
			Name:      principal.DisplayName(),
			CreatedAt: principal.CreatedAt,
		}})
	}
}

// UpdateProfile forwards account changes to the identity provider.
func UpdateProfile(svc accountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current := accountsvc.Profile{
			ID:        principal.ID,
			Email:     principal.Email,
			Name:      principal.Name,
			CreatedAt: principal.CreatedAt,
		}
		profile, err := svc.UpdateProfile(r.Context(), current, accountsvc.UpdateProfileInput{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profileResponse{Profile: profile})
	}
}

package controllers

import (
	"net/http"

	"github.com/mercadolocal/mercados-backend/api/responses"
	"github.com/mercadolocal/mercados-backend/api/validators"
	accountsvc "github.com/mercadolocal/mercados-backend/internal/accounts"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Signup registers a user with the identity provider and returns a session.
func Signup(svc accountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "accounts service unavailable"))
			return
		}

		var payload signupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Signup(r.Context(), accountsvc.SignupInput{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

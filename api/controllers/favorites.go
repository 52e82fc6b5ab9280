package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercadolocal/mercados-backend/api/middleware"
	"github.com/mercadolocal/mercados-backend/api/responses"
	"github.com/mercadolocal/mercados-backend/api/validators"
	favoritesvc "github.com/mercadolocal/mercados-backend/internal/favorites"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
)

type favoritesResponse struct {
	Favorites *favoritesvc.Favorites `json:"favorites"`
}

type addFavoriteRequest struct {
	Type       string `json:"type" validate:"required,oneof=market vendor"`
	TargetID   string `json:"target_id" validate:"required"`
	TargetName string `json:"target_name" validate:"required"`
}

// GetFavorites returns the caller's saved markets and vendors.
func GetFavorites(svc favoritesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		favorites, err := svc.Get(r.Context(), principal.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, favoritesResponse{Favorites: favorites})
	}
}

// AddFavorite saves a market or vendor to the caller's favorites.
func AddFavorite(svc favoritesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload addFavoriteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		favorites, err := svc.Add(r.Context(), principal.ID, payload.Type, payload.TargetID, payload.TargetName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, favoritesResponse{Favorites: favorites})
	}
}

// RemoveFavorite drops a market or vendor from the caller's favorites.
func RemoveFavorite(svc favoritesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		favorites, err := svc.Remove(r.Context(), principal.ID, chi.URLParam(r, "type"), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, favoritesResponse{Favorites: favorites})
	}
}

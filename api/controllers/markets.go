package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercadolocal/mercados-backend/api/middleware"
	"github.com/mercadolocal/mercados-backend/api/responses"
	"github.com/mercadolocal/mercados-backend/api/validators"
	marketsvc "github.com/mercadolocal/mercados-backend/internal/markets"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
	"github.com/mercadolocal/mercados-backend/pkg/types"
)

type marketListResponse struct {
	Markets []marketsvc.Market `json:"markets"`
}

type marketResponse struct {
	Market *marketsvc.Market `json:"market"`
}

type createMarketRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Address     string   `json:"address" validate:"required"`
	Phone       string   `json:"phone"`
	Hours       string   `json:"hours"`
	Category    string   `json:"category"`
	Products    string   `json:"products"`
	Website     string   `json:"website"`
	Instagram   string   `json:"instagram"`
	Facebook    string   `json:"facebook"`
	Photos      []string `json:"photos"`
}

type updateMarketRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Hours       *string   `json:"hours,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Products    *string   `json:"products,omitempty"`
	Website     *string   `json:"website,omitempty"`
	Instagram   *string   `json:"instagram,omitempty"`
	Facebook    *string   `json:"facebook,omitempty"`
	Photos      *[]string `json:"photos,omitempty"`
}

// ListMarkets returns every market, newest first.
func ListMarkets(svc marketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "market service unavailable"))
			return
		}

		markets, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, marketListResponse{Markets: markets})
	}
}

// ListMyMarkets returns the markets created by the authenticated user.
func ListMyMarkets(svc marketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "market service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		markets, err := svc.ListByOwner(r.Context(), principal.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, marketListResponse{Markets: markets})
	}
}

// GetMarket returns a single market by id.
func GetMarket(svc marketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "market service unavailable"))
			return
		}

		market, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, marketResponse{Market: market})
	}
}

// CreateMarket creates a market owned by the authenticated user.
func CreateMarket(svc marketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "market service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createMarketRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		market, err := svc.Create(r.Context(), actorFromPrincipal(principal), marketsvc.CreateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Address:     payload.Address,
			Phone:       payload.Phone,
			Hours:       payload.Hours,
			Category:    payload.Category,
			Products:    payload.Products,
			Website:     payload.Website,
			Instagram:   payload.Instagram,
			Facebook:    payload.Facebook,
			Photos:      payload.Photos,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, marketResponse{Market: market})
	}
}

// UpdateMarket applies a partial update to a market owned by the caller.
func UpdateMarket(svc marketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "market service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload updateMarketRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		market, err := svc.Update(r.Context(), actorFromPrincipal(principal), chi.URLParam(r, "id"), marketsvc.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Address:     payload.Address,
			Phone:       payload.Phone,
			Hours:       payload.Hours,
			Category:    payload.Category,
			Products:    payload.Products,
			Website:     payload.Website,
			Instagram:   payload.Instagram,
			Facebook:    payload.Facebook,
			Photos:      payload.Photos,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, marketResponse{Market: market})
	}
}

// DeleteMarket removes a market owned by the caller and its itineraries.
func DeleteMarket(svc marketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "market service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		if err := svc.Delete(r.Context(), actorFromPrincipal(principal), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.StatusResponse{Success: true, Message: "Market deleted successfully"})
	}
}

func actorFromPrincipal(p middleware.Principal) marketsvc.Actor {
	return marketsvc.Actor{ID: p.ID, Name: p.DisplayName()}
}

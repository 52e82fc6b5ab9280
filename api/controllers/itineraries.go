package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercadolocal/mercados-backend/api/middleware"
	"github.com/mercadolocal/mercados-backend/api/responses"
	"github.com/mercadolocal/mercados-backend/api/validators"
	itinerarysvc "github.com/mercadolocal/mercados-backend/internal/itineraries"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
	"github.com/mercadolocal/mercados-backend/pkg/types"
)

type itineraryListResponse struct {
	Itineraries []itinerarysvc.Itinerary `json:"itineraries"`
}

type itineraryResponse struct {
	Itinerary *itinerarysvc.Itinerary `json:"itinerary"`
}

type itineraryStopRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type createItineraryRequest struct {
	MarketID    string                 `json:"market_id" validate:"required"`
	Title       string                 `json:"title" validate:"required"`
	Description string                 `json:"description" validate:"required"`
	Duration    string                 `json:"duration"`
	Stops       []itineraryStopRequest `json:"stops" validate:"required,min=1,dive"`
}

type updateItineraryRequest struct {
	Title       *string                 `json:"title,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Duration    *string                 `json:"duration,omitempty"`
	Stops       *[]itineraryStopRequest `json:"stops,omitempty" validate:"omitempty,min=1,dive"`
}

func toStops(stops []itineraryStopRequest) []itinerarysvc.Stop {
	out := make([]itinerarysvc.Stop, 0, len(stops))
	for _, s := range stops {
		out = append(out, itinerarysvc.Stop{
			Name:        s.Name,
			Description: s.Description,
			Location:    s.Location,
		})
	}
	return out
}

// ListItineraries returns itineraries, optionally filtered by ?market=.
func ListItineraries(svc itinerarysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "itinerary service unavailable"))
			return
		}

		itineraries, err := svc.List(r.Context(), r.URL.Query().Get("market"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, itineraryListResponse{Itineraries: itineraries})
	}
}

// CreateItinerary creates a market route owned by the authenticated user.
func CreateItinerary(svc itinerarysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "itinerary service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createItineraryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itinerary, err := svc.Create(r.Context(), itinerarysvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, itinerarysvc.CreateInput{
			MarketID:    payload.MarketID,
			Title:       payload.Title,
			Description: payload.Description,
			Duration:    payload.Duration,
			Stops:       toStops(payload.Stops),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, itineraryResponse{Itinerary: itinerary})
	}
}

// UpdateItinerary applies a partial update to an itinerary owned by the caller.
func UpdateItinerary(svc itinerarysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "itinerary service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload updateItineraryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := itinerarysvc.UpdateInput{
			Title:       payload.Title,
			Description: payload.Description,
			Duration:    payload.Duration,
		}
		if payload.Stops != nil {
			stops := toStops(*payload.Stops)
			input.Stops = &stops
		}

		itinerary, err := svc.Update(r.Context(), itinerarysvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, chi.URLParam(r, "id"), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, itineraryResponse{Itinerary: itinerary})
	}
}

// DeleteItinerary removes an itinerary owned by the caller.
func DeleteItinerary(svc itinerarysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "itinerary service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		if err := svc.Delete(r.Context(), itinerarysvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.StatusResponse{Success: true, Message: "Itinerary deleted successfully"})
	}
}

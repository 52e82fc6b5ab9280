package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercadolocal/mercados-backend/api/middleware"
	"github.com/mercadolocal/mercados-backend/api/responses"
	"github.com/mercadolocal/mercados-backend/api/validators"
	reviewsvc "github.com/mercadolocal/mercados-backend/internal/reviews"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
	"github.com/mercadolocal/mercados-backend/pkg/types"
)

type reviewListResponse struct {
	Reviews []reviewsvc.Review `json:"reviews"`
}

type reviewResponse struct {
	Review *reviewsvc.Review `json:"review"`
}

type createReviewRequest struct {
	Market     string   `json:"market"`
	Rating     int      `json:"rating" validate:"required,min=1,max=5"`
	Comment    string   `json:"comment" validate:"required"`
	Photos     []string `json:"photos"`
	ReviewType string   `json:"review_type" validate:"omitempty,oneof=market vendor"`
	VendorID   string   `json:"vendor_id"`
	VendorName string   `json:"vendor_name"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment" validate:"required"`
}

// ListReviews returns reviews, optionally filtered by ?market=.
func ListReviews(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		reviews, err := svc.List(r.Context(), r.URL.Query().Get("market"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reviewListResponse{Reviews: reviews})
	}
}

// CreateReview submits a review authored by the authenticated user.
func CreateReview(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Create(r.Context(), reviewsvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, reviewsvc.CreateInput{
			Market:     payload.Market,
			Rating:     payload.Rating,
			Comment:    payload.Comment,
			Photos:     payload.Photos,
			ReviewType: payload.ReviewType,
			VendorID:   payload.VendorID,
			VendorName: payload.VendorName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, reviewResponse{Review: review})
	}
}

// UpdateReview re-rates a review authored by the caller.
func UpdateReview(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload updateReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Update(r.Context(), reviewsvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, chi.URLParam(r, "id"), reviewsvc.UpdateInput{
			Rating:  payload.Rating,
			Comment: payload.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reviewResponse{Review: review})
	}
}

// ToggleReviewHelpful flips the caller's helpful mark on a review.
func ToggleReviewHelpful(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		review, err := svc.ToggleHelpful(r.Context(), principal.ID, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reviewResponse{Review: review})
	}
}

// DeleteReview removes a review authored by the caller.
func DeleteReview(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		if err := svc.Delete(r.Context(), reviewsvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.StatusResponse{Success: true, Message: "Review deleted successfully"})
	}
}

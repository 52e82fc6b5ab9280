package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercadolocal/mercados-backend/api/middleware"
	"github.com/mercadolocal/mercados-backend/api/responses"
	"github.com/mercadolocal/mercados-backend/api/validators"
	vendorsvc "github.com/mercadolocal/mercados-backend/internal/vendors"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
	"github.com/mercadolocal/mercados-backend/pkg/types"
)

type vendorListResponse struct {
	Vendors []vendorsvc.Vendor `json:"vendors"`
}

type vendorResponse struct {
	Vendor *vendorsvc.Vendor `json:"vendor"`
}

type createVendorRequest struct {
	Name        string   `json:"name" validate:"required"`
	Specialty   string   `json:"specialty" validate:"required"`
	MarketID    string   `json:"market_id" validate:"required"`
	MarketName  string   `json:"market_name"`
	Location    string   `json:"location"`
	Phone       string   `json:"phone"`
	WhatsApp    string   `json:"whatsapp"`
	Instagram   string   `json:"instagram"`
	Description string   `json:"description"`
	Photo       string   `json:"photo"`
	Products    []string `json:"products"`
	Badges      []string `json:"badges"`
}

type updateVendorRequest struct {
	Name        *string   `json:"name,omitempty"`
	Specialty   *string   `json:"specialty,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	WhatsApp    *string   `json:"whatsapp,omitempty"`
	Instagram   *string   `json:"instagram,omitempty"`
	Description *string   `json:"description,omitempty"`
	Photo       *string   `json:"photo,omitempty"`
	Products    *[]string `json:"products,omitempty"`
	Badges      *[]string `json:"badges,omitempty"`
}

// ListVendors returns vendors, optionally filtered by ?market=.
func ListVendors(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		vendors, err := svc.List(r.Context(), r.URL.Query().Get("market"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendorListResponse{Vendors: vendors})
	}
}

// GetVendor returns a single vendor by id.
func GetVendor(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		vendor, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendorResponse{Vendor: vendor})
	}
}

// CreateVendor registers a vendor owned by the authenticated user.
func CreateVendor(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload createVendorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Create(r.Context(), vendorsvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, vendorsvc.CreateInput{
			Name:        payload.Name,
			Specialty:   payload.Specialty,
			MarketID:    payload.MarketID,
			MarketName:  payload.MarketName,
			Location:    payload.Location,
			Phone:       payload.Phone,
			WhatsApp:    payload.WhatsApp,
			Instagram:   payload.Instagram,
			Description: payload.Description,
			Photo:       payload.Photo,
			Products:    payload.Products,
			Badges:      payload.Badges,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, vendorResponse{Vendor: vendor})
	}
}

// UpdateVendor applies a partial update to a vendor owned by the caller.
func UpdateVendor(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload updateVendorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendor, err := svc.Update(r.Context(), vendorsvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, chi.URLParam(r, "id"), vendorsvc.UpdateInput{
			Name:        payload.Name,
			Specialty:   payload.Specialty,
			Location:    payload.Location,
			Phone:       payload.Phone,
			WhatsApp:    payload.WhatsApp,
			Instagram:   payload.Instagram,
			Description: payload.Description,
			Photo:       payload.Photo,
			Products:    payload.Products,
			Badges:      payload.Badges,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vendorResponse{Vendor: vendor})
	}
}

// DeleteVendor removes a vendor owned by the caller.
func DeleteVendor(svc vendorsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor service unavailable"))
			return
		}

		principal, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		if err := svc.Delete(r.Context(), vendorsvc.Actor{ID: principal.ID, Name: principal.DisplayName()}, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types.StatusResponse{Success: true, Message: "Vendor deleted successfully"})
	}
}

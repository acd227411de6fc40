package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/api/middleware"
	"github.com/blackbass-labs/blackbass-backend/api/responses"
	"github.com/blackbass-labs/blackbass-backend/api/validators"
	catalogsvc "github.com/blackbass-labs/blackbass-backend/internal/catalog"
	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

type productResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description,omitempty"`
	PriceCents    int64      `json:"price_cents"`
	StockQuantity *int       `json:"stock_quantity,omitempty"`
	WeightKG      *float64   `json:"weight_kg,omitempty"`
	StoreID       *uuid.UUID `json:"store_id,omitempty"`
	ImageURLs     []string   `json:"image_urls"`
	CreatedAt     time.Time  `json:"created_at"`
}

func newProductResponse(product models.Product) productResponse {
	return productResponse{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		PriceCents:    product.PriceCents,
		StockQuantity: product.StockQuantity,
		WeightKG:      product.WeightKG,
		StoreID:       product.StoreID,
		ImageURLs:     product.ImageURLs,
		CreatedAt:     product.CreatedAt,
	}
}

type createProductRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=5000"`
	PriceCents    int64    `json:"price_cents" validate:"required,gt=0"`
	StockQuantity *int     `json:"stock_quantity" validate:"omitempty,gte=0"`
	WeightKG      *float64 `json:"weight_kg" validate:"omitempty,gt=0"`
	ImageURLs     []string `json:"image_urls" validate:"required,min=1,dive,url"`
}

// ProductCreate registers a new listing for the authenticated seller. The
// listing is attached to the seller's store when the session carries one.
func ProductCreate(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var storeID *uuid.UUID
		if raw := middleware.StoreIDFromContext(r.Context()); raw != "" {
			if parsed, err := uuid.Parse(raw); err == nil {
				storeID = &parsed
			}
		}

		product, err := svc.Create(r.Context(), catalogsvc.CreateInput{
			Owner:         middleware.BuyerRefFromContext(r.Context()),
			StoreID:       storeID,
			Name:          payload.Name,
			Description:   payload.Description,
			PriceCents:    payload.PriceCents,
			StockQuantity: payload.StockQuantity,
			WeightKG:      payload.WeightKG,
			ImageURLs:     payload.ImageURLs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(*product))
	}
}

// ProductGet returns a single listing.
func ProductGet(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// ProductsListMine returns the authenticated seller's listings.
func ProductsListMine(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := svc.ListByOwner(r.Context(), middleware.BuyerRefFromContext(r.Context()), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]productResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, newProductResponse(row))
		}
		responses.WriteSuccess(w, out)
	}
}

type updateProductRequest struct {
	Name          *string  `json:"name" validate:"omitempty,max=200"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	PriceCents    *int64   `json:"price_cents" validate:"omitempty,gt=0"`
	StockQuantity *int     `json:"stock_quantity" validate:"omitempty,gte=0"`
	WeightKG      *float64 `json:"weight_kg" validate:"omitempty,gt=0"`
	ImageURLs     []string `json:"image_urls" validate:"omitempty,min=1,dive,url"`
}

// ProductUpdate edits a listing owned by the authenticated seller.
func ProductUpdate(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), middleware.BuyerRefFromContext(r.Context()), productID, catalogsvc.UpdateInput{
			Name:          payload.Name,
			Description:   payload.Description,
			PriceCents:    payload.PriceCents,
			StockQuantity: payload.StockQuantity,
			WeightKG:      payload.WeightKG,
			ImageURLs:     payload.ImageURLs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

// ProductDelete removes a listing owned by the authenticated seller.
func ProductDelete(svc *catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		if err := svc.Delete(r.Context(), middleware.BuyerRefFromContext(r.Context()), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

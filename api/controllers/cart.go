package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/api/middleware"
	"github.com/blackbass-labs/blackbass-backend/api/responses"
	"github.com/blackbass-labs/blackbass-backend/api/validators"
	cartsvc "github.com/blackbass-labs/blackbass-backend/internal/cart"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type cartLineResponse struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	ImageURL   string    `json:"image_url,omitempty"`
	StoreID    *string   `json:"store_id,omitempty"`
}

func newCartResponse(lines []cartsvc.Line) []cartLineResponse {
	out := make([]cartLineResponse, 0, len(lines))
	for _, line := range lines {
		resp := cartLineResponse{
			ProductID:  line.ProductID,
			Name:       line.Name,
			PriceCents: line.PriceCents,
			Quantity:   line.Quantity,
			ImageURL:   line.ImageURL,
		}
		if line.StoreID != nil {
			id := line.StoreID.String()
			resp.StoreID = &id
		}
		out = append(out, resp)
	}
	return out
}

// CartGet returns the buyer's cart snapshot.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyer := middleware.BuyerRefFromContext(r.Context())
		lines, err := svc.Snapshot(r.Context(), buyer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(lines))
	}
}

type addCartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=0"`
}

// CartAdd sets or creates a cart line.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		buyer := middleware.BuyerRefFromContext(r.Context())
		if err := svc.Add(r.Context(), buyer, payload.ProductID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"product_id": payload.ProductID})
	}
}

// CartIncrement bumps a line quantity by one.
func CartIncrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartQuantityHandler(svc.Increment, logg)
}

// CartDecrement lowers a line quantity by one, removing it at zero.
func CartDecrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartQuantityHandler(svc.Decrement, logg)
}

// CartRemove deletes a line.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartQuantityHandler(svc.Remove, logg)
}

// CartClear wipes the buyer's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyer := middleware.BuyerRefFromContext(r.Context())
		if err := svc.Clear(r.Context(), buyer); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"cleared": true})
	}
}

func cartQuantityHandler(op func(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		buyer := middleware.BuyerRefFromContext(r.Context())
		if err := op(r.Context(), buyer, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_id": productID})
	}
}

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
	ordersvc "github.com/blackbass-labs/blackbass-backend/internal/orders"
	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/pagination"
)

type orderItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	SubtotalCents  int64     `json:"subtotal_cents"`
	ImageURL       *string   `json:"image_url,omitempty"`
}

type orderResponse struct {
	ID           uuid.UUID           `json:"id"`
	Code         string              `json:"code"`
	StoreID      uuid.UUID           `json:"store_id"`
	Status       string              `json:"status"`
	TotalCents   int64               `json:"total_cents"`
	PaymentID    *string             `json:"payment_id,omitempty"`
	LabelURL     *string             `json:"label_url,omitempty"`
	TrackingCode *string             `json:"tracking_code,omitempty"`
	Items        []orderItemResponse `json:"items"`
	CreatedAt    time.Time           `json:"created_at"`
}

func newOrderResponse(order models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents,
			ImageURL:       item.ImageURL,
		})
	}
	return orderResponse{
		ID:           order.ID,
		Code:         order.Code,
		StoreID:      order.StoreID,
		Status:       string(order.Status),
		TotalCents:   order.TotalCents,
		PaymentID:    order.PaymentID,
		LabelURL:     order.LabelURL,
		TrackingCode: order.TrackingCode,
		Items:        items,
		CreatedAt:    order.CreatedAt,
	}
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderListResponse(rows []models.Order, next string) orderListResponse {
	out := orderListResponse{Orders: make([]orderResponse, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		out.Orders = append(out.Orders, newOrderResponse(row))
	}
	return out
}

func paginationParams(r *http.Request) pagination.Params {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}
}

// OrdersList returns the authenticated buyer's orders, newest first.
func OrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyer := middleware.BuyerRefFromContext(r.Context())
		rows, next, err := svc.ListForBuyer(r.Context(), buyer, paginationParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(rows, next))
	}
}

// OrderGet returns one of the buyer's orders.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		buyer := middleware.BuyerRefFromContext(r.Context())
		order, err := svc.Get(r.Context(), buyer, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(*order))
	}
}

// SalesList returns orders for the seller's active store.
func SalesList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := requireStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListForStore(r.Context(), storeID, paginationParams(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(rows, next))
	}
}

type advanceStatusRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// OrderAdvanceStatus moves a store order one step through the funnel.
func OrderAdvanceStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload advanceStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID, err := requireStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.AdvanceStatus(r.Context(), ordersvc.AdvanceStatusInput{
			OrderID: payload.OrderID,
			StoreID: storeID,
			Actor:   middleware.BuyerRefFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id": payload.OrderID,
			"status":   status,
		})
	}
}

func requireStoreID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.StoreIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	storeID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id")
	}
	return storeID, nil
}

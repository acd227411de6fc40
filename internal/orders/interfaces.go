package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/blackbass-labs/blackbass-backend/pkg/pagination"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

// LabelRecord carries the shipping label fields persisted after the label
// pipeline completes.
type LabelRecord struct {
	LabelOrderID string
	ServiceID    int
	LabelURL     string
	Company      string
	Carrier      string
	TrackingCode string
}

// Repository defines persistence for orders, their items, and the stock
// side effects that belong to order creation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyer types.BuyerRef, params pagination.Params) ([]models.Order, string, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	UpdateStatusByPaymentID(ctx context.Context, paymentID string, status enums.OrderStatus) (int64, error)
	SaveLabel(ctx context.Context, id uuid.UUID, label LabelRecord) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
}

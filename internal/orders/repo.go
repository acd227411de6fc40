package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/blackbass-labs/blackbass-backend/pkg/pagination"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrderWithItems writes the order header and all items in one unit.
// Callers run it inside WithTx so the header never commits without its items.
func (r *repository) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) (uuid.UUID, error) {
	if order == nil {
		return uuid.Nil, errors.New("order required")
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return uuid.Nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
			return uuid.Nil, err
		}
	}
	return order.ID, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyer types.BuyerRef, params pagination.Params) ([]models.Order, string, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	switch buyer.Kind {
	case enums.BuyerKindPF:
		query = query.Where("buyer_pf_id = ?", buyer.ID)
	case enums.BuyerKindPJ:
		query = query.Where("buyer_pj_id = ?", buyer.ID)
	default:
		return nil, "", errors.New("unknown buyer kind")
	}
	return r.page(query, params)
}

func (r *repository) ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items").
		Where("store_id = ?", storeID)
	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatusByPaymentID moves every order stamped with the payment into
// the given status. Terminal payment outcomes arrive here from webhook
// reconciliation; zero matched rows is not an error.
func (r *repository) UpdateStatusByPaymentID(ctx context.Context, paymentID string, status enums.OrderStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_id = ?", paymentID).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *repository) SaveLabel(ctx context.Context, id uuid.UUID, label LabelRecord) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"label_order_id":     label.LabelOrderID,
		"label_service_id":   label.ServiceID,
		"label_url":          label.LabelURL,
		"label_company":      label.Company,
		"label_service_name": label.Carrier,
		"label_issued_at":    now,
	}
	if label.TrackingCode != "" {
		updates["tracking_code"] = label.TrackingCode
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock subtracts quantity in a single conditional update so
// concurrent checkouts never oversell. The boolean reports whether the row
// matched; untracked stock rows (NULL stock_quantity) are left alone and
// reported as applied.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Select("id", "stock_quantity").Where("id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if product.StockQuantity == nil {
		return true, nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

// Line is a cart row joined with the live product attributes needed by
// checkout. Stock and price reflect the listing at read time, not at the
// time the line was added.
type Line struct {
	ProductID     uuid.UUID
	Name          string
	PriceCents    int64
	StockQuantity *int
	StoreID       *uuid.UUID
	OwnerID       uuid.UUID
	OwnerKind     enums.BuyerKind
	Quantity      int
	ImageURL      string
	WeightKG      *float64
}

// Repository defines persistence operations for cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Snapshot(ctx context.Context, buyer types.BuyerRef) ([]Line, error)
	FindLine(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) (*models.CartLine, error)
	UpsertLine(ctx context.Context, line *models.CartLine) error
	SetQuantity(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error
	Clear(ctx context.Context, buyer types.BuyerRef) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Snapshot joins cart lines with products so checkout sees current price,
// stock, and store ownership. An empty cart yields an empty slice.
func (r *repository) Snapshot(ctx context.Context, buyer types.BuyerRef) ([]Line, error) {
	var rows []struct {
		ProductID     uuid.UUID
		Name          string
		PriceCents    int64
		StockQuantity *int
		StoreID       *uuid.UUID
		OwnerID       uuid.UUID
		OwnerKind     enums.BuyerKind
		Quantity      int
		ImageURLs     types.JSONList `gorm:"serializer:json"`
		WeightKG      *float64
	}
	err := r.db.WithContext(ctx).
		Table("cart_lines").
		Select("cart_lines.product_id, products.name, products.price_cents, products.stock_quantity, products.store_id, products.owner_id, products.owner_kind, cart_lines.quantity, products.image_urls, products.weight_kg").
		Joins("JOIN products ON products.id = cart_lines.product_id").
		Where("cart_lines.buyer_id = ? AND cart_lines.buyer_kind = ?", buyer.ID, buyer.Kind).
		Order("cart_lines.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		line := Line{
			ProductID:     row.ProductID,
			Name:          row.Name,
			PriceCents:    row.PriceCents,
			StockQuantity: row.StockQuantity,
			StoreID:       row.StoreID,
			OwnerID:       row.OwnerID,
			OwnerKind:     row.OwnerKind,
			Quantity:      row.Quantity,
			WeightKG:      row.WeightKG,
		}
		if len(row.ImageURLs) > 0 {
			line.ImageURL = row.ImageURLs[0]
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (r *repository) FindLine(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND buyer_kind = ? AND product_id = ?", buyer.ID, buyer.Kind, productID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &line, nil
}

func (r *repository) UpsertLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "buyer_kind"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(line).Error
}

func (r *repository) SetQuantity(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("buyer_id = ? AND buyer_kind = ? AND product_id = ?", buyer.ID, buyer.Kind, productID).
		Update("quantity", quantity).Error
}

func (r *repository) DeleteLine(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("buyer_id = ? AND buyer_kind = ? AND product_id = ?", buyer.ID, buyer.Kind, productID).
		Delete(&models.CartLine{}).Error
}

func (r *repository) Clear(ctx context.Context, buyer types.BuyerRef) error {
	return r.db.WithContext(ctx).
		Where("buyer_id = ? AND buyer_kind = ?", buyer.ID, buyer.Kind).
		Delete(&models.CartLine{}).Error
}

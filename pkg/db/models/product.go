package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

// Product is a sellable listing. StockQuantity is only ever reduced through
// the conditional decrement in the orders repository; nil StockQuantity means
// stock is untracked for the listing.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Description   *string         `gorm:"column:description"`
	PriceCents    int64           `gorm:"column:price_cents;not null"`
	StockQuantity *int            `gorm:"column:stock_quantity"`
	WeightKG      *float64        `gorm:"column:weight_kg"`
	OwnerID       uuid.UUID       `gorm:"column:owner_id;type:uuid;not null"`
	OwnerKind     enums.BuyerKind `gorm:"column:owner_kind;type:text;not null"`
	StoreID       *uuid.UUID      `gorm:"column:store_id;type:uuid;index"`
	ImageURLs     types.JSONList  `gorm:"column:image_urls;type:jsonb;serializer:json"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// FirstImageURL returns the leading image or empty string.
func (p Product) FirstImageURL() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
)

// CartLine is one product row in a buyer's cart. A buyer holds at most one
// line per product; quantity is never persisted as zero.
type CartLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID   uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:uq_cart_buyer_product"`
	BuyerKind enums.BuyerKind `gorm:"column:buyer_kind;type:text;not null;uniqueIndex:uq_cart_buyer_product"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_cart_buyer_product"`
	Quantity  int             `gorm:"column:quantity;not null;default:1"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLine) TableName() string { return "cart_lines" }

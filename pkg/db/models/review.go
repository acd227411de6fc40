package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
)

// Review is a buyer's rating of a purchased product.
type Review struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index;uniqueIndex:uq_review_buyer_product"`
	BuyerID   uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:uq_review_buyer_product"`
	BuyerKind enums.BuyerKind `gorm:"column:buyer_kind;type:text;not null;uniqueIndex:uq_review_buyer_product"`
	Rating    int             `gorm:"column:rating;not null"`
	Comment   *string         `gorm:"column:comment"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Review) TableName() string { return "reviews" }

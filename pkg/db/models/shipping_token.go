package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingToken stores a store's OAuth grant for the shipping aggregator.
// One row per store, replaced wholesale on every exchange or refresh.
type ShippingToken struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID      uuid.UUID  `gorm:"column:store_id;type:uuid;not null;uniqueIndex"`
	AccessToken  string     `gorm:"column:access_token;not null"`
	RefreshToken string     `gorm:"column:refresh_token;not null"`
	TokenType    string     `gorm:"column:token_type;not null;default:'Bearer'"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	// ExpiresIn survives from rows written before expires_at existed; the
	// token manager derives expiry from created_at + expires_in for those.
	ExpiresIn *int64    `gorm:"column:expires_in"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ShippingToken) TableName() string { return "shipping_tokens" }

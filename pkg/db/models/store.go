package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
)

// Store is a seller storefront. The address and document columns feed the
// sender block of shipping labels.
type Store struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string          `gorm:"column:name;not null"`
	OwnerID    uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index"`
	OwnerKind  enums.BuyerKind `gorm:"column:owner_kind;type:text;not null"`
	Email      *string         `gorm:"column:email"`
	Phone      *string         `gorm:"column:phone"`
	Document   *string         `gorm:"column:document"`
	PostalCode *string         `gorm:"column:postal_code"`
	Street     *string         `gorm:"column:street"`
	Number     *string         `gorm:"column:number"`
	Complement *string         `gorm:"column:complement"`
	District   *string         `gorm:"column:district"`
	City       *string         `gorm:"column:city"`
	State      *string         `gorm:"column:state"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Store) TableName() string { return "stores" }

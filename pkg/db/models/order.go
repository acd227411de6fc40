package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
)

// Order is one store's slice of a checkout event. Exactly one of the buyer
// columns and one of the seller columns is set, chosen by account kind.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code       string            `gorm:"column:code;not null;index"`
	StoreID    uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'created'"`
	BuyerPFID  *uuid.UUID        `gorm:"column:buyer_pf_id;type:uuid;index"`
	BuyerPJID  *uuid.UUID        `gorm:"column:buyer_pj_id;type:uuid;index"`
	SellerPFID *uuid.UUID        `gorm:"column:seller_pf_id;type:uuid"`
	SellerPJID *uuid.UUID        `gorm:"column:seller_pj_id;type:uuid"`
	TotalCents int64             `gorm:"column:total_cents;not null"`
	PaymentID  *string           `gorm:"column:payment_id;index"`

	// Shipping label metadata, populated by the label pipeline. A non-nil
	// LabelOrderID means a label was already purchased for this order.
	LabelOrderID  *string    `gorm:"column:label_order_id"`
	LabelService  *int       `gorm:"column:label_service_id"`
	LabelURL      *string    `gorm:"column:label_url"`
	LabelCompany  *string    `gorm:"column:label_company"`
	LabelCarrier  *string    `gorm:"column:label_service_name"`
	TrackingCode  *string    `gorm:"column:tracking_code"`
	LabelIssuedAt *time.Time `gorm:"column:label_issued_at"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// BuyerID returns whichever buyer column is populated.
func (o Order) BuyerID() *uuid.UUID {
	if o.BuyerPFID != nil {
		return o.BuyerPFID
	}
	return o.BuyerPJID
}

// BuyerKind reports the kind implied by the populated buyer column.
func (o Order) BuyerKind() enums.BuyerKind {
	if o.BuyerPFID != nil {
		return enums.BuyerKindPF
	}
	return enums.BuyerKindPJ
}

// HasLabel reports whether the label pipeline already ran for this order.
func (o Order) HasLabel() bool {
	return o.LabelOrderID != nil && *o.LabelOrderID != ""
}

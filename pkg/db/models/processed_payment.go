package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
)

// ProcessedPayment is the durable dedup ledger for provider webhooks. The
// unique payment id is the claim: a second delivery of the same payment hits
// the constraint and is treated as already handled.
type ProcessedPayment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID   string              `gorm:"column:payment_id;not null;uniqueIndex"`
	BuyerID     uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	BuyerKind   enums.BuyerKind     `gorm:"column:buyer_kind;type:text;not null"`
	Status      enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	ProcessedAt time.Time           `gorm:"column:processed_at;autoCreateTime"`
}

func (ProcessedPayment) TableName() string { return "processed_payments" }

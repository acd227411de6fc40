package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Subscription tracks a store's recurring plan as mirrored from provider
// preapproval notifications.
type Subscription struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID         uuid.UUID       `gorm:"column:store_id;type:uuid;not null;index"`
	MPPreapprovalID string          `gorm:"column:mp_preapproval_id;not null;uniqueIndex"`
	Status          string          `gorm:"column:status;not null"`
	RawPayload      json.RawMessage `gorm:"column:raw_payload;type:jsonb"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string { return "subscriptions" }

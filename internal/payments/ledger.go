package payments

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db"
	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

// Ledger is the durable webhook dedup store. The unique payment_id column
// is the claim: exactly one delivery of a payment wins the insert.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(gdb *gorm.DB) *Ledger {
	return &Ledger{db: gdb}
}

func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{db: tx}
}

// Claim records the payment as processed. It returns false without error
// when another delivery already holds the claim.
func (l *Ledger) Claim(ctx context.Context, paymentID string, buyer types.BuyerRef, status enums.PaymentStatus) (bool, error) {
	row := models.ProcessedPayment{
		PaymentID: paymentID,
		BuyerID:   buyer.ID,
		BuyerKind: buyer.Kind,
		Status:    status,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Release drops the claim after a failed fulfillment so the provider's
// retry gets a clean attempt.
func (l *Ledger) Release(ctx context.Context, paymentID string) error {
	return l.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Delete(&models.ProcessedPayment{}).Error
}

// Find returns the ledger row for a payment, nil when absent.
func (l *Ledger) Find(ctx context.Context, paymentID string) (*models.ProcessedPayment, error) {
	var row models.ProcessedPayment
	err := l.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/mercadopago"
	"github.com/blackbass-labs/blackbass-backend/pkg/outbox"
)

type preapprovalFetcher interface {
	GetPreapproval(ctx context.Context, preapprovalID string) (*mercadopago.Preapproval, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service mirrors provider preapproval state into the subscriptions table.
type Service struct {
	db     *gorm.DB
	mp     preapprovalFetcher
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

func NewService(gdb *gorm.DB, mp preapprovalFetcher, tx txRunner, ob outboxPublisher, logg *logger.Logger) (*Service, error) {
	if gdb == nil {
		return nil, fmt.Errorf("db required")
	}
	if mp == nil {
		return nil, fmt.Errorf("preapproval fetcher required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{db: gdb, mp: mp, tx: tx, outbox: ob, logg: logg}, nil
}

// SubscriptionEvent is the outbox payload for subscription changes.
type SubscriptionEvent struct {
	PreapprovalID string `json:"preapproval_id"`
	Status        string `json:"status"`
}

// HandleNotification fetches the authoritative preapproval record and
// upserts the mirror row. The external reference names the store the plan
// belongs to.
func (s *Service) HandleNotification(ctx context.Context, preapprovalID string) error {
	id := strings.TrimSpace(preapprovalID)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "preapproval id is required")
	}

	pre, err := s.mp.GetPreapproval(ctx, id)
	if err != nil {
		return err
	}

	storeID, err := uuid.Parse(strings.TrimSpace(pre.ExternalReference))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "preapproval carries no store reference")
	}

	raw, err := json.Marshal(pre)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal preapproval")
	}

	row := models.Subscription{
		StoreID:         storeID,
		MPPreapprovalID: pre.ID,
		Status:          pre.Status,
		RawPayload:      raw,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "mp_preapproval_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "raw_payload", "updated_at"}),
			}).
			Create(&row).Error; err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionUpdated,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   storeID,
			Data:          SubscriptionEvent{PreapprovalID: pre.ID, Status: pre.Status},
			Version:       1,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert subscription")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"preapproval_id": pre.ID,
			"status":         pre.Status,
		})
		s.logg.Info(logCtx, "subscription updated")
	}
	return nil
}

package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/outbox"
	"github.com/blackbass-labs/blackbass-backend/pkg/pagination"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, buyer types.BuyerRef, orderID uuid.UUID) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyer types.BuyerRef, params pagination.Params) ([]models.Order, string, error)
	ListForStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (enums.OrderStatus, error)
}

// AdvanceStatusInput carries the data needed to push an order one step
// through the fulfillment funnel.
type AdvanceStatusInput struct {
	OrderID uuid.UUID
	StoreID uuid.UUID
	Actor   types.BuyerRef
}

// StatusChangedEvent is emitted when an order moves through the funnel.
type StatusChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	Code    string            `json:"code"`
	StoreID uuid.UUID         `json:"store_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, ob outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: ob}, nil
}

// Get loads one order and enforces that the caller is its buyer.
func (s *service) Get(ctx context.Context, buyer types.BuyerRef, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	buyerID := order.BuyerID()
	if buyerID == nil || *buyerID != buyer.ID || order.BuyerKind() != buyer.Kind {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyer types.BuyerRef, params pagination.Params) ([]models.Order, string, error) {
	if !buyer.Valid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	rows, next, err := s.repo.ListByBuyer(ctx, buyer, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list buyer orders")
	}
	return rows, next, nil
}

func (s *service) ListForStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if storeID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	rows, next, err := s.repo.ListByStore(ctx, storeID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list store orders")
	}
	return rows, next, nil
}

// AdvanceStatus moves the order one step along the fixed funnel
// created -> processing -> paid -> shipped -> delivered. Terminal states
// are never entered or left through this path.
func (s *service) AdvanceStatus(ctx context.Context, input AdvanceStatusInput) (enums.OrderStatus, error) {
	if input.OrderID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.StoreID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "store context required")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.StoreID != input.StoreID {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another store")
	}

	if order.Status.IsTerminal() {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in terminal status %s cannot advance", order.Status))
	}
	next, ok := order.Status.Next()
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order status %s has no next step", order.Status))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, next); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{BuyerID: input.Actor.ID, BuyerKind: string(input.Actor.Kind), StoreID: &input.StoreID},
			Data: StatusChangedEvent{
				OrderID: order.ID,
				Code:    order.Code,
				StoreID: order.StoreID,
				From:    order.Status,
				To:      next,
			},
			Version: 1,
		})
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance order status")
	}
	return next, nil
}

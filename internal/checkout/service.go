package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/internal/cart"
	"github.com/blackbass-labs/blackbass-backend/internal/orders"
	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/metrics"
	"github.com/blackbass-labs/blackbass-backend/pkg/outbox"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cartSource interface {
	Snapshot(ctx context.Context, buyer types.BuyerRef) ([]cart.Line, error)
	Clear(ctx context.Context, buyer types.BuyerRef) error
}

// Service turns a buyer's cart into per-store orders.
type Service interface {
	Finalize(ctx context.Context, input FinalizeInput) (*Result, error)
}

// FinalizeInput carries the checkout actor and, when fulfillment runs from
// payment reconciliation, the provider payment id to stamp on each order.
type FinalizeInput struct {
	Buyer     types.BuyerRef
	PaymentID *string
}

// CreatedOrder summarizes one store order produced by a checkout event.
type CreatedOrder struct {
	OrderID    uuid.UUID `json:"order_id"`
	Code       string    `json:"code"`
	StoreID    uuid.UUID `json:"store_id"`
	TotalCents int64     `json:"total_cents"`
}

// Result reports the fan-out outcome. FailedStores is non-empty when some
// store orders could not be written; the created orders stand regardless.
type Result struct {
	Orders       []CreatedOrder `json:"orders"`
	FailedStores []uuid.UUID    `json:"failed_stores,omitempty"`
}

// OrderCreatedEvent is the outbox payload for each store order.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	Code       string    `json:"code"`
	StoreID    uuid.UUID `json:"store_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	BuyerKind  string    `json:"buyer_kind"`
	TotalCents int64     `json:"total_cents"`
	PaymentID  *string   `json:"payment_id,omitempty"`
}

type service struct {
	carts  cartSource
	orders orders.Repository
	tx     txRunner
	outbox outboxPublisher
	stats  *metrics.FulfillmentMetrics
	logg   *logger.Logger
}

// NewService builds the checkout service.
func NewService(carts cartSource, ordersRepo orders.Repository, tx txRunner, ob outboxPublisher, stats *metrics.FulfillmentMetrics, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{carts: carts, orders: ordersRepo, tx: tx, outbox: ob, stats: stats, logg: logg}, nil
}

// Finalize loads the cart, partitions it by store, and writes one order per
// store in its own transaction. Stores are independent units of work: one
// store failing does not roll back the others. After the writes commit, the
// inventory decrement and cart clear run as non-fatal hooks whose failures
// are logged and counted, never surfaced to the buyer.
func (s *service) Finalize(ctx context.Context, input FinalizeInput) (*Result, error) {
	if !input.Buyer.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}

	lines, err := s.carts.Snapshot(ctx, input.Buyer)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	partitions, err := PartitionByStore(ctx, s.logg, lines)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &Result{}
	var storeErrs error

	for storeID, items := range partitions {
		created, err := s.createStoreOrder(ctx, input, storeID, items, now)
		if err != nil {
			s.stats.IncStoreOutcome("failed")
			storeErrs = multierr.Append(storeErrs, fmt.Errorf("store %s: %w", storeID, err))
			result.FailedStores = append(result.FailedStores, storeID)
			if s.logg != nil {
				errCtx := s.logg.WithStoreID(ctx, storeID.String())
				s.logg.Error(errCtx, "checkout store order failed", err)
			}
			continue
		}
		s.stats.IncStoreOutcome("created")
		result.Orders = append(result.Orders, *created)
	}

	if len(result.Orders) == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, storeErrs, "no store order could be created")
	}

	s.runPostCommitHooks(ctx, input.Buyer, partitions, result)
	return result, nil
}

func (s *service) createStoreOrder(ctx context.Context, input FinalizeInput, storeID uuid.UUID, items []Item, now time.Time) (*CreatedOrder, error) {
	var total int64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		total += item.SubtotalCents
		row := models.OrderItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents,
		}
		if item.ImageURL != "" {
			imageURL := item.ImageURL
			row.ImageURL = &imageURL
		}
		orderItems = append(orderItems, row)
	}

	order := &models.Order{
		Code:       OrderCode(storeID, now),
		StoreID:    storeID,
		Status:     enums.OrderStatusCreated,
		TotalCents: total,
		PaymentID:  input.PaymentID,
	}
	switch input.Buyer.Kind {
	case enums.BuyerKindPF:
		order.BuyerPFID = &input.Buyer.ID
	case enums.BuyerKindPJ:
		order.BuyerPJID = &input.Buyer.ID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown buyer kind")
	}
	if len(items) > 0 {
		sellerID := items[0].SellerID
		switch enums.BuyerKind(items[0].SellerKind) {
		case enums.BuyerKindPF:
			order.SellerPFID = &sellerID
		case enums.BuyerKindPJ:
			order.SellerPJID = &sellerID
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.orders.WithTx(tx).CreateOrderWithItems(ctx, order, orderItems); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{BuyerID: input.Buyer.ID, BuyerKind: string(input.Buyer.Kind)},
			Data: OrderCreatedEvent{
				OrderID:    order.ID,
				Code:       order.Code,
				StoreID:    storeID,
				BuyerID:    input.Buyer.ID,
				BuyerKind:  string(input.Buyer.Kind),
				TotalCents: total,
				PaymentID:  input.PaymentID,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	return &CreatedOrder{
		OrderID:    order.ID,
		Code:       order.Code,
		StoreID:    storeID,
		TotalCents: total,
	}, nil
}

// runPostCommitHooks decrements stock and clears the cart after the orders
// are durable. Neither hook can fail the checkout; outcomes feed the
// fulfillment counters so operators see drift.
func (s *service) runPostCommitHooks(ctx context.Context, buyer types.BuyerRef, partitions map[uuid.UUID][]Item, result *Result) {
	failed := make(map[uuid.UUID]struct{}, len(result.FailedStores))
	for _, id := range result.FailedStores {
		failed[id] = struct{}{}
	}

	var hookErrs error
	for storeID, items := range partitions {
		if _, skip := failed[storeID]; skip {
			continue
		}
		for _, item := range items {
			applied, err := s.orders.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil || !applied {
				if err == nil {
					err = fmt.Errorf("stock row did not match for product %s", item.ProductID)
				}
				hookErrs = multierr.Append(hookErrs, err)
				s.stats.IncHookFailure("inventory_decrement")
				continue
			}
			s.stats.IncHookSuccess("inventory_decrement")
		}
	}

	if err := s.carts.Clear(ctx, buyer); err != nil {
		hookErrs = multierr.Append(hookErrs, err)
		s.stats.IncHookFailure("cart_clear")
	} else {
		s.stats.IncHookSuccess("cart_clear")
	}

	if hookErrs != nil && s.logg != nil {
		s.logg.Error(ctx, "checkout post-commit hooks incomplete", hookErrs)
	}
}

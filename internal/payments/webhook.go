package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/internal/checkout"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/mercadopago"
	"github.com/blackbass-labs/blackbass-backend/pkg/metrics"
	"github.com/blackbass-labs/blackbass-backend/pkg/outbox"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type orderStamper interface {
	UpdateStatusByPaymentID(ctx context.Context, paymentID string, status enums.OrderStatus) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Notification is the parsed webhook delivery. The provider sends the
// payment id in the query string or the body depending on notification
// flavor; both are accepted.
type Notification struct {
	PaymentID string
	Topic     string
}

// ParseNotification extracts the payment id and topic from a raw delivery.
func ParseNotification(query url.Values, body []byte) Notification {
	n := Notification{}
	n.Topic = query.Get("type")
	if n.Topic == "" {
		n.Topic = query.Get("topic")
	}
	n.PaymentID = query.Get("data.id")
	if n.PaymentID == "" {
		n.PaymentID = query.Get("id")
	}
	if n.PaymentID == "" && len(body) > 0 {
		var payload struct {
			Type string `json:"type"`
			Data struct {
				ID json.Number `json:"id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			n.PaymentID = payload.Data.ID.String()
			if n.Topic == "" {
				n.Topic = payload.Type
			}
		}
	}
	n.PaymentID = strings.TrimSpace(n.PaymentID)
	return n
}

// PaymentEvent is the outbox payload for payment outcomes.
type PaymentEvent struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	BuyerID   string `json:"buyer_id,omitempty"`
	BuyerKind string `json:"buyer_kind,omitempty"`
	Orders    int    `json:"orders,omitempty"`
}

// Reconciler drives webhook deliveries to a terminal handling state. The
// provider record fetched by id is the only trusted input; notification
// bodies are treated as hints.
type Reconciler struct {
	mp      paymentFetcher
	guard   *IdempotencyGuard
	ledger  *Ledger
	fulfill fulfiller
	orders  orderStamper
	tx      txRunner
	outbox  outboxPublisher
	stats   *metrics.WebhookMetrics
	logg    *logger.Logger
}

// NewReconciler builds the webhook reconciler.
func NewReconciler(mp paymentFetcher, guard *IdempotencyGuard, ledger *Ledger, fulfill fulfiller, orders orderStamper, tx txRunner, ob outboxPublisher, stats *metrics.WebhookMetrics, logg *logger.Logger) (*Reconciler, error) {
	if mp == nil {
		return nil, fmt.Errorf("payment fetcher required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if fulfill == nil {
		return nil, fmt.Errorf("fulfiller required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order stamper required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Reconciler{
		mp:      mp,
		guard:   guard,
		ledger:  ledger,
		fulfill: fulfill,
		orders:  orders,
		tx:      tx,
		outbox:  ob,
		stats:   stats,
		logg:    logg,
	}, nil
}

// Process handles one webhook delivery. A nil return acknowledges the
// delivery; a validation-coded error tells the controller to answer 4xx so
// the provider stops retrying, and any other error answers 5xx so it does.
// Malformed deliveries without a payment id are acknowledged outright, a
// 4xx would only buy a retry storm for something that can never reconcile.
func (r *Reconciler) Process(ctx context.Context, n Notification) error {
	started := time.Now()
	defer func() { r.stats.ObserveDuration("mercadopago", time.Since(started)) }()

	if n.PaymentID == "" {
		r.stats.IncTerminal("missing_id")
		if r.logg != nil {
			r.logg.Warn(ctx, "webhook notification carries no payment id")
		}
		return nil
	}
	if r.logg != nil {
		ctx = r.logg.WithPaymentID(ctx, n.PaymentID)
	}

	duplicate, err := r.guard.CheckAndMark(ctx, n.PaymentID)
	if err != nil {
		// Redis being down must not drop payments; the ledger still dedups.
		if r.logg != nil {
			r.logg.Error(ctx, "webhook idempotency guard unavailable", err)
		}
	} else if duplicate {
		r.stats.IncTerminal("duplicate_fast")
		return nil
	}

	payment, err := r.mp.GetPayment(ctx, n.PaymentID)
	if err != nil {
		r.release(ctx, n.PaymentID)
		r.stats.IncTerminal("fetch_failed")
		return err
	}

	if payment.MetadataString("handled_by") == "direct" {
		r.stats.IncTerminal("direct_skip")
		if r.logg != nil {
			r.logg.Info(ctx, "webhook skipping direct-charge payment")
		}
		return nil
	}

	status, err := enums.ParsePaymentStatus(payment.Status)
	if err != nil {
		r.stats.IncTerminal("unknown_status")
		if r.logg != nil {
			r.logg.Warn(r.logg.WithField(ctx, "status", payment.Status), "webhook ignoring unknown payment status")
		}
		return nil
	}

	switch status {
	case enums.PaymentStatusApproved:
		return r.handleApproved(ctx, n.PaymentID, payment)
	case enums.PaymentStatusPending, enums.PaymentStatusInProcess:
		// Not terminal for us; the provider will notify again.
		r.stats.IncTerminal(string(status))
		r.release(ctx, n.PaymentID)
		return nil
	case enums.PaymentStatusRejected, enums.PaymentStatusCancelled:
		return r.handleUnsuccessful(ctx, n.PaymentID, payment, status, enums.EventPaymentRejected)
	case enums.PaymentStatusRefunded:
		return r.handleReversal(ctx, n.PaymentID, payment, status, enums.OrderStatusRefunded)
	case enums.PaymentStatusChargeback:
		return r.handleReversal(ctx, n.PaymentID, payment, status, enums.OrderStatusChargeback)
	default:
		r.stats.IncTerminal("unknown_status")
		return nil
	}
}

// handleApproved claims the ledger row and runs fulfillment. A hard
// fulfillment failure releases both guards and surfaces as 5xx so the
// provider redelivers.
func (r *Reconciler) handleApproved(ctx context.Context, paymentID string, payment *mercadopago.Payment) error {
	buyer, err := buyerFromMetadata(payment)
	if err != nil {
		r.stats.IncTerminal("metadata_missing")
		return err
	}

	claimed, err := r.ledger.Claim(ctx, paymentID, buyer, enums.PaymentStatusApproved)
	if err != nil {
		r.release(ctx, paymentID)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record processed payment")
	}
	if !claimed {
		r.stats.IncTerminal("duplicate_ledger")
		return nil
	}

	result, err := r.fulfill.Finalize(ctx, checkout.FinalizeInput{Buyer: buyer, PaymentID: &paymentID})
	if err != nil {
		if te := pkgerrors.As(err); te != nil && te.Code() == pkgerrors.CodeValidation {
			// Nothing to fulfill: the cart is empty or held no usable
			// lines. The claim is kept so redeliveries resolve as
			// duplicates instead of replaying against the same cart.
			r.stats.IncTerminal("skipped_empty_cart")
			if r.logg != nil {
				r.logg.Warn(r.logg.WithField(ctx, "reason", te.Error()), "webhook skipping approved payment with nothing to fulfill")
			}
			return nil
		}
		if relErr := r.ledger.Release(ctx, paymentID); relErr != nil && r.logg != nil {
			r.logg.Error(ctx, "release payment claim after failed fulfillment", relErr)
		}
		r.release(ctx, paymentID)
		r.stats.IncTerminal("fulfillment_failed")
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fulfill approved payment")
	}

	if err := r.emit(ctx, enums.EventPaymentApproved, buyer, PaymentEvent{
		PaymentID: paymentID,
		Status:    payment.Status,
		BuyerID:   buyer.ID.String(),
		BuyerKind: string(buyer.Kind),
		Orders:    len(result.Orders),
	}); err != nil && r.logg != nil {
		r.logg.Error(ctx, "emit payment approved event", err)
	}

	r.stats.IncTerminal("approved")
	return nil
}

// handleUnsuccessful records rejected and cancelled payments. No order
// exists yet for these, so the ledger claim plus an event is the whole job.
func (r *Reconciler) handleUnsuccessful(ctx context.Context, paymentID string, payment *mercadopago.Payment, status enums.PaymentStatus, event enums.OutboxEventType) error {
	buyer, _ := buyerFromMetadata(payment)
	claimed, err := r.ledger.Claim(ctx, paymentID, buyer, status)
	if err != nil {
		r.release(ctx, paymentID)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record processed payment")
	}
	if !claimed {
		r.stats.IncTerminal("duplicate_ledger")
		return nil
	}

	data := PaymentEvent{PaymentID: paymentID, Status: payment.Status}
	if buyer.Valid() {
		data.BuyerID = buyer.ID.String()
		data.BuyerKind = string(buyer.Kind)
	}
	if err := r.emit(ctx, event, buyer, data); err != nil && r.logg != nil {
		r.logg.Error(ctx, "emit payment event", err)
	}

	r.stats.IncTerminal(string(status))
	return nil
}

// handleReversal moves any orders stamped with the payment into the
// matching terminal order status. Reversals can arrive long after the
// original approval, so the ledger row may or may not exist.
func (r *Reconciler) handleReversal(ctx context.Context, paymentID string, payment *mercadopago.Payment, status enums.PaymentStatus, orderStatus enums.OrderStatus) error {
	affected, err := r.orders.UpdateStatusByPaymentID(ctx, paymentID, orderStatus)
	if err != nil {
		r.release(ctx, paymentID)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply payment reversal to orders")
	}

	buyer, _ := buyerFromMetadata(payment)
	data := PaymentEvent{PaymentID: paymentID, Status: payment.Status, Orders: int(affected)}
	if buyer.Valid() {
		data.BuyerID = buyer.ID.String()
		data.BuyerKind = string(buyer.Kind)
	}
	if err := r.emit(ctx, enums.EventPaymentRefunded, buyer, data); err != nil && r.logg != nil {
		r.logg.Error(ctx, "emit payment reversal event", err)
	}

	r.stats.IncTerminal(string(status))
	return nil
}

func (r *Reconciler) emit(ctx context.Context, event enums.OutboxEventType, buyer types.BuyerRef, data PaymentEvent) error {
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var actor *outbox.ActorRef
		if buyer.Valid() {
			actor = &outbox.ActorRef{BuyerID: buyer.ID, BuyerKind: string(buyer.Kind)}
		}
		return r.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     event,
			AggregateType: enums.AggregatePayment,
			AggregateID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(data.PaymentID)),
			Actor:         actor,
			Data:          data,
			Version:       1,
		})
	})
}

func (r *Reconciler) release(ctx context.Context, paymentID string) {
	if err := r.guard.Release(ctx, paymentID); err != nil && r.logg != nil {
		r.logg.Error(ctx, "release webhook idempotency mark", err)
	}
}

// buyerFromMetadata reads the buyer ref stamped on the payment at intent
// time. A payment without it cannot be fulfilled and is answered 4xx.
func buyerFromMetadata(payment *mercadopago.Payment) (types.BuyerRef, error) {
	rawID := payment.MetadataString("buyer_id")
	rawKind := payment.MetadataString("buyer_kind")
	if rawID == "" || rawKind == "" {
		return types.BuyerRef{}, pkgerrors.New(pkgerrors.CodeValidation, "payment metadata missing buyer")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return types.BuyerRef{}, pkgerrors.New(pkgerrors.CodeValidation, "payment metadata buyer id malformed")
	}
	kind, err := enums.ParseBuyerKind(rawKind)
	if err != nil {
		return types.BuyerRef{}, pkgerrors.New(pkgerrors.CodeValidation, "payment metadata buyer kind malformed")
	}
	return types.BuyerRef{ID: id, Kind: kind}, nil
}

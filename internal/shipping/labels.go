package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/internal/orders"
	"github.com/blackbass-labs/blackbass-backend/internal/profiles"
	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/melhorenvio"
	"github.com/blackbass-labs/blackbass-backend/pkg/outbox"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type labelClient interface {
	CartInsert(ctx context.Context, accessToken string, req melhorenvio.CartRequest) (*melhorenvio.CartItem, error)
	Checkout(ctx context.Context, accessToken string, orderIDs []string) (*melhorenvio.CheckoutResponse, error)
	GenerateLabels(ctx context.Context, accessToken string, orderIDs []string) error
	PrintLabels(ctx context.Context, accessToken string, orderIDs []string) (*melhorenvio.PrintResponse, error)
	Track(ctx context.Context, accessToken string, orderIDs []string) (map[string]melhorenvio.TrackingInfo, error)
	Quote(ctx context.Context, accessToken string, req melhorenvio.QuoteRequest) ([]melhorenvio.QuoteOption, error)
}

type senderResolver interface {
	Resolve(ctx context.Context, buyer types.BuyerRef) (*profiles.Profile, error)
	FindStore(ctx context.Context, storeID uuid.UUID) (*models.Store, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// LabelInput requests a label for one order on behalf of its store.
type LabelInput struct {
	OrderID   uuid.UUID
	StoreID   uuid.UUID
	ServiceID int
}

// LabelResult reports the purchased label.
type LabelResult struct {
	OrderID      uuid.UUID `json:"order_id"`
	LabelOrderID string    `json:"label_order_id"`
	LabelURL     string    `json:"label_url"`
	ServiceID    int       `json:"service_id"`
	Company      string    `json:"company,omitempty"`
	Carrier      string    `json:"carrier,omitempty"`
}

// LabelGeneratedEvent is the outbox payload for purchased labels.
type LabelGeneratedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	StoreID      uuid.UUID `json:"store_id"`
	LabelOrderID string    `json:"label_order_id"`
	LabelURL     string    `json:"label_url"`
}

// LabelService drives the cart-insert, checkout, generate, print pipeline
// against the aggregator and persists the result on the order. Any step
// failing aborts the run; nothing is retried automatically, the seller
// re-triggers manually.
type LabelService struct {
	me       labelClient
	tokens   *TokenManager
	orders   orders.Repository
	resolver senderResolver
	tx       txRunner
	outbox   outboxPublisher
	cfg      config.ShippingConfig
	logg     *logger.Logger
}

// NewLabelService builds the label pipeline.
func NewLabelService(me labelClient, tokens *TokenManager, ordersRepo orders.Repository, resolver senderResolver, tx txRunner, ob outboxPublisher, cfg config.ShippingConfig, logg *logger.Logger) (*LabelService, error) {
	if me == nil {
		return nil, fmt.Errorf("aggregator client required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token manager required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("profile resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &LabelService{
		me:       me,
		tokens:   tokens,
		orders:   ordersRepo,
		resolver: resolver,
		tx:       tx,
		outbox:   ob,
		cfg:      cfg,
		logg:     logg,
	}, nil
}

// Generate purchases and prints a shipping label for the order.
func (s *LabelService) Generate(ctx context.Context, input LabelInput) (*LabelResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context required")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.StoreID != input.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another store")
	}
	if order.HasLabel() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a label")
	}

	accessToken, err := s.tokens.Get(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}

	cartReq, err := s.buildCartRequest(ctx, order, input.ServiceID)
	if err != nil {
		return nil, err
	}

	item, err := s.me.CartInsert(ctx, accessToken, *cartReq)
	if err != nil {
		return nil, err
	}
	shipmentIDs := []string{item.ID}

	if _, err := s.me.Checkout(ctx, accessToken, shipmentIDs); err != nil {
		return nil, err
	}
	if err := s.me.GenerateLabels(ctx, accessToken, shipmentIDs); err != nil {
		return nil, err
	}
	printed, err := s.me.PrintLabels(ctx, accessToken, shipmentIDs)
	if err != nil {
		return nil, err
	}

	record := orders.LabelRecord{
		LabelOrderID: item.ID,
		ServiceID:    cartReq.Service,
		LabelURL:     printed.URL,
	}
	if item.Service != nil {
		record.Company = item.Service.Company.Name
		record.Carrier = item.Service.Name
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).SaveLabel(ctx, order.ID, record); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLabelGenerated,
			AggregateType: enums.AggregateShipment,
			AggregateID:   order.ID,
			Data: LabelGeneratedEvent{
				OrderID:      order.ID,
				StoreID:      order.StoreID,
				LabelOrderID: item.ID,
				LabelURL:     printed.URL,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist label")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":       order.ID.String(),
			"label_order_id": item.ID,
		})
		s.logg.Info(logCtx, "shipping label generated")
	}

	return &LabelResult{
		OrderID:      order.ID,
		LabelOrderID: item.ID,
		LabelURL:     printed.URL,
		ServiceID:    cartReq.Service,
		Company:      record.Company,
		Carrier:      record.Carrier,
	}, nil
}

// Track returns the aggregator tracking snapshot for a labeled order.
func (s *LabelService) Track(ctx context.Context, storeID, orderID uuid.UUID) (*melhorenvio.TrackingInfo, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another store")
	}
	if !order.HasLabel() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no label yet")
	}

	accessToken, err := s.tokens.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.me.Track(ctx, accessToken, []string{*order.LabelOrderID})
	if err != nil {
		return nil, err
	}
	info, ok := snapshots[*order.LabelOrderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no tracking data for label")
	}
	return &info, nil
}

// Quote lists carrier offers for shipping the order before a label is
// purchased. Offers the aggregator flags with an error are dropped.
func (s *LabelService) Quote(ctx context.Context, storeID, orderID uuid.UUID) ([]melhorenvio.QuoteOption, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another store")
	}

	accessToken, err := s.tokens.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}

	cartReq, err := s.buildCartRequest(ctx, order, 0)
	if err != nil {
		return nil, err
	}

	dimension := float64(s.cfg.DefaultDimensionCM)
	products := make([]melhorenvio.QuoteProduct, 0, len(order.Items))
	for _, item := range order.Items {
		products = append(products, melhorenvio.QuoteProduct{
			Width:    dimension,
			Height:   dimension,
			Length:   dimension,
			Weight:   s.cfg.DefaultWeightKG,
			Quantity: item.Quantity,
		})
	}

	options, err := s.me.Quote(ctx, accessToken, melhorenvio.QuoteRequest{
		From:     melhorenvio.QuoteEndpoint{PostalCode: cartReq.From.PostalCode},
		To:       melhorenvio.QuoteEndpoint{PostalCode: cartReq.To.PostalCode},
		Products: products,
	})
	if err != nil {
		return nil, err
	}

	usable := options[:0]
	for _, option := range options {
		if option.Error == "" {
			usable = append(usable, option)
		}
	}
	return usable, nil
}

// buildCartRequest resolves sender and receiver and declares the shipment:
// every item as a product line plus one aggregate volume with the summed
// weight and default dimensions.
func (s *LabelService) buildCartRequest(ctx context.Context, order *models.Order, serviceID int) (*melhorenvio.CartRequest, error) {
	store, err := s.resolver.FindStore(ctx, order.StoreID)
	if err != nil {
		return nil, err
	}
	sender, err := partyFromStore(store)
	if err != nil {
		return nil, err
	}

	buyerID := order.BuyerID()
	if buyerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order carries no buyer")
	}
	profile, err := s.resolver.Resolve(ctx, types.BuyerRef{ID: *buyerID, Kind: order.BuyerKind()})
	if err != nil {
		return nil, err
	}
	receiver, err := partyFromProfile(profile)
	if err != nil {
		return nil, err
	}

	if serviceID <= 0 {
		serviceID = s.cfg.DefaultServiceID
	}

	products := make([]melhorenvio.CartProduct, 0, len(order.Items))
	totalWeight := 0.0
	for _, item := range order.Items {
		products = append(products, melhorenvio.CartProduct{
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitaryValue: brlFromCents(item.UnitPriceCents),
		})
		totalWeight += s.cfg.DefaultWeightKG * float64(item.Quantity)
	}
	if totalWeight <= 0 {
		totalWeight = s.cfg.DefaultWeightKG
	}

	dimension := float64(s.cfg.DefaultDimensionCM)
	return &melhorenvio.CartRequest{
		Service:  serviceID,
		From:     *sender,
		To:       *receiver,
		Products: products,
		Volumes: []melhorenvio.Volume{{
			Height: dimension,
			Width:  dimension,
			Length: dimension,
			Weight: totalWeight,
		}},
		Options: melhorenvio.CartOptions{
			InsuranceValue: brlFromCents(order.TotalCents),
			NonCommercial:  true,
		},
	}, nil
}

func partyFromStore(store *models.Store) (*melhorenvio.Party, error) {
	party := &melhorenvio.Party{
		Name:       store.Name,
		Phone:      strVal(store.Phone),
		Email:      strVal(store.Email),
		Address:    strVal(store.Street),
		Number:     strVal(store.Number),
		Complement: strVal(store.Complement),
		District:   strVal(store.District),
		City:       strVal(store.City),
		StateAbbr:  strVal(store.State),
		PostalCode: strVal(store.PostalCode),
	}
	switch store.OwnerKind {
	case enums.BuyerKindPJ:
		party.CompanyDoc = strVal(store.Document)
	default:
		party.Document = strVal(store.Document)
	}
	if party.PostalCode == "" || party.Address == "" || party.City == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "store address is incomplete for shipping")
	}
	return party, nil
}

func partyFromProfile(profile *profiles.Profile) (*melhorenvio.Party, error) {
	party := &melhorenvio.Party{
		Name:       profile.Name,
		Phone:      profile.Phone,
		Email:      profile.Email,
		Address:    profile.Street,
		Number:     profile.Number,
		Complement: profile.Complement,
		District:   profile.District,
		City:       profile.City,
		StateAbbr:  profile.State,
		PostalCode: profile.PostalCode,
	}
	if profile.Kind == enums.BuyerKindPJ {
		party.CompanyDoc = profile.Document
	} else {
		party.Document = profile.Document
	}
	if party.PostalCode == "" || party.Address == "" || party.City == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "buyer address is incomplete for shipping")
	}
	return party, nil
}

var centsPerUnit = decimal.NewFromInt(100)

func brlFromCents(cents int64) float64 {
	value, _ := decimal.NewFromInt(cents).Div(centsPerUnit).Round(2).Float64()
	return value
}

func strVal(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/outbox"
	"github.com/blackbass-labs/blackbass-backend/pkg/pagination"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type stubOrdersRepo struct {
	order         *models.Order
	updatedStatus enums.OrderStatus
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrdersRepo) CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) (uuid.UUID, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order != nil && s.order.ID == id {
		return s.order, nil
	}
	return nil, nil
}

func (s *stubOrdersRepo) ListByBuyer(ctx context.Context, buyer types.BuyerRef, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrdersRepo) ListByStore(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.updatedStatus = status
	return nil
}

func (s *stubOrdersRepo) UpdateStatusByPaymentID(ctx context.Context, paymentID string, status enums.OrderStatus) (int64, error) {
	return 0, nil
}

func (s *stubOrdersRepo) SaveLabel(ctx context.Context, id uuid.UUID, label LabelRecord) error {
	return nil
}

func (s *stubOrdersRepo) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	return true, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func storeOrder(status enums.OrderStatus) (*models.Order, types.BuyerRef) {
	buyerID := uuid.New()
	buyer := types.BuyerRef{ID: buyerID, Kind: enums.BuyerKindPF}
	return &models.Order{
		ID:        uuid.New(),
		Code:      "LABCD-20260830-0001",
		StoreID:   uuid.New(),
		Status:    status,
		BuyerPFID: &buyerID,
	}, buyer
}

func TestGetEnforcesBuyerOwnership(t *testing.T) {
	order, buyer := storeOrder(enums.OrderStatusCreated)
	repo := &stubOrdersRepo{order: order}
	svc, err := NewService(repo, stubTxRunner{}, &stubOutbox{})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	stranger := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}
	_, err = svc.Get(context.Background(), stranger, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestGetDistinguishesBuyerKind(t *testing.T) {
	order, buyer := storeOrder(enums.OrderStatusCreated)
	repo := &stubOrdersRepo{order: order}
	svc, err := NewService(repo, stubTxRunner{}, &stubOutbox{})
	require.NoError(t, err)

	// same id under the other legal shape is a different account
	_, err = svc.Get(context.Background(), types.BuyerRef{ID: buyer.ID, Kind: enums.BuyerKindPJ}, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestAdvanceStatusWalksTheFunnel(t *testing.T) {
	steps := []struct {
		from enums.OrderStatus
		to   enums.OrderStatus
	}{
		{enums.OrderStatusCreated, enums.OrderStatusProcessing},
		{enums.OrderStatusProcessing, enums.OrderStatusPaid},
		{enums.OrderStatusPaid, enums.OrderStatusShipped},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered},
	}

	for _, step := range steps {
		t.Run(string(step.from), func(t *testing.T) {
			order, buyer := storeOrder(step.from)
			repo := &stubOrdersRepo{order: order}
			ob := &stubOutbox{}
			svc, err := NewService(repo, stubTxRunner{}, ob)
			require.NoError(t, err)

			next, err := svc.AdvanceStatus(context.Background(), AdvanceStatusInput{
				OrderID: order.ID,
				StoreID: order.StoreID,
				Actor:   buyer,
			})
			require.NoError(t, err)
			assert.Equal(t, step.to, next)
			assert.Equal(t, step.to, repo.updatedStatus)
			require.Len(t, ob.events, 1)
			assert.Equal(t, enums.EventOrderStatusChanged, ob.events[0].EventType)
		})
	}
}

func TestAdvanceStatusRejectsTerminalStates(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusDelivered,
		enums.OrderStatusCanceled,
		enums.OrderStatusRefunded,
		enums.OrderStatusChargeback,
	} {
		t.Run(string(status), func(t *testing.T) {
			order, buyer := storeOrder(status)
			repo := &stubOrdersRepo{order: order}
			svc, err := NewService(repo, stubTxRunner{}, &stubOutbox{})
			require.NoError(t, err)

			_, err = svc.AdvanceStatus(context.Background(), AdvanceStatusInput{
				OrderID: order.ID,
				StoreID: order.StoreID,
				Actor:   buyer,
			})
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
		})
	}
}

func TestAdvanceStatusRejectsForeignStore(t *testing.T) {
	order, buyer := storeOrder(enums.OrderStatusCreated)
	repo := &stubOrdersRepo{order: order}
	svc, err := NewService(repo, stubTxRunner{}, &stubOutbox{})
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(context.Background(), AdvanceStatusInput{
		OrderID: order.ID,
		StoreID: uuid.New(),
		Actor:   buyer,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

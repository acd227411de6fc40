package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackbass-labs/blackbass-backend/internal/cart"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

func testLine(storeID *uuid.UUID, quantity int) cart.Line {
	return cart.Line{
		ProductID:  uuid.New(),
		Name:       "isca artificial",
		PriceCents: 2500,
		StoreID:    storeID,
		OwnerID:    uuid.New(),
		OwnerKind:  enums.BuyerKindPJ,
		Quantity:   quantity,
	}
}

func TestPartitionByStoreGroupsByStore(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	storeA := uuid.New()
	storeB := uuid.New()

	lines := []cart.Line{
		testLine(&storeA, 2),
		testLine(&storeA, 1),
		testLine(&storeB, 3),
	}

	partitions, err := PartitionByStore(context.Background(), logg, lines)
	require.NoError(t, err)
	require.Len(t, partitions, 2)
	assert.Len(t, partitions[storeA], 2)
	assert.Len(t, partitions[storeB], 1)

	item := partitions[storeB][0]
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, int64(2500), item.UnitPriceCents)
	assert.Equal(t, int64(7500), item.SubtotalCents)
	assert.Equal(t, string(enums.BuyerKindPJ), item.SellerKind)
}

func TestPartitionByStoreSkipsStorelessLines(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	storeID := uuid.New()

	partitions, err := PartitionByStore(context.Background(), logg, []cart.Line{
		testLine(nil, 1),
		testLine(&storeID, 1),
	})
	require.NoError(t, err)
	require.Len(t, partitions, 1)
	assert.Len(t, partitions[storeID], 1)
}

func TestPartitionByStoreFloorsQuantityAtOne(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	storeID := uuid.New()

	partitions, err := PartitionByStore(context.Background(), logg, []cart.Line{
		testLine(&storeID, 0),
	})
	require.NoError(t, err)
	require.Len(t, partitions[storeID], 1)
	assert.Equal(t, 1, partitions[storeID][0].Quantity)
	assert.Equal(t, int64(2500), partitions[storeID][0].SubtotalCents)
}

func TestPartitionByStoreRejectsInsufficientTrackedStock(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	storeID := uuid.New()
	stock := 1

	line := testLine(&storeID, 5)
	line.StockQuantity = &stock

	_, err := PartitionByStore(context.Background(), logg, []cart.Line{line})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
}

func TestPartitionByStoreIgnoresUntrackedStock(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})
	storeID := uuid.New()

	// nil StockQuantity means untracked inventory, any quantity is allowed
	partitions, err := PartitionByStore(context.Background(), logg, []cart.Line{
		testLine(&storeID, 999),
	})
	require.NoError(t, err)
	assert.Equal(t, 999, partitions[storeID][0].Quantity)
}

func TestPartitionByStoreEmptyResultFails(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test"})

	_, err := PartitionByStore(context.Background(), logg, []cart.Line{
		testLine(nil, 1),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

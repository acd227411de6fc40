package cart

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
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type stubCartRepo struct {
	line     *models.CartLine
	upserted *models.CartLine
	setQty   *int
	deleted  bool
	cleared  bool
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCartRepo) Snapshot(ctx context.Context, buyer types.BuyerRef) ([]Line, error) {
	return nil, nil
}

func (s *stubCartRepo) FindLine(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) (*models.CartLine, error) {
	return s.line, nil
}

func (s *stubCartRepo) UpsertLine(ctx context.Context, line *models.CartLine) error {
	s.upserted = line
	return nil
}

func (s *stubCartRepo) SetQuantity(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID, quantity int) error {
	s.setQty = &quantity
	return nil
}

func (s *stubCartRepo) DeleteLine(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error {
	s.deleted = true
	return nil
}

func (s *stubCartRepo) Clear(ctx context.Context, buyer types.BuyerRef) error {
	s.cleared = true
	return nil
}

type stubProductLoader struct {
	product *models.Product
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.product, nil
}

func testBuyer() types.BuyerRef {
	return types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}
}

func TestAddFloorsQuantity(t *testing.T) {
	repo := &stubCartRepo{}
	svc, err := NewService(repo, &stubProductLoader{product: &models.Product{ID: uuid.New()}})
	require.NoError(t, err)

	require.NoError(t, svc.Add(context.Background(), testBuyer(), uuid.New(), -3))
	require.NotNil(t, repo.upserted)
	assert.Equal(t, 1, repo.upserted.Quantity)
}

func TestAddUnknownProduct(t *testing.T) {
	svc, err := NewService(&stubCartRepo{}, &stubProductLoader{})
	require.NoError(t, err)

	err = svc.Add(context.Background(), testBuyer(), uuid.New(), 1)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestIncrementBumpsExistingLine(t *testing.T) {
	repo := &stubCartRepo{line: &models.CartLine{Quantity: 2}}
	svc, err := NewService(repo, &stubProductLoader{})
	require.NoError(t, err)

	require.NoError(t, svc.Increment(context.Background(), testBuyer(), uuid.New()))
	require.NotNil(t, repo.setQty)
	assert.Equal(t, 3, *repo.setQty)
}

func TestIncrementMissingLine(t *testing.T) {
	svc, err := NewService(&stubCartRepo{}, &stubProductLoader{})
	require.NoError(t, err)

	err = svc.Increment(context.Background(), testBuyer(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDecrementAtOneDeletesLine(t *testing.T) {
	repo := &stubCartRepo{line: &models.CartLine{Quantity: 1}}
	svc, err := NewService(repo, &stubProductLoader{})
	require.NoError(t, err)

	require.NoError(t, svc.Decrement(context.Background(), testBuyer(), uuid.New()))
	assert.True(t, repo.deleted)
	assert.Nil(t, repo.setQty)
}

func TestDecrementAboveOneLowersQuantity(t *testing.T) {
	repo := &stubCartRepo{line: &models.CartLine{Quantity: 4}}
	svc, err := NewService(repo, &stubProductLoader{})
	require.NoError(t, err)

	require.NoError(t, svc.Decrement(context.Background(), testBuyer(), uuid.New()))
	assert.False(t, repo.deleted)
	require.NotNil(t, repo.setQty)
	assert.Equal(t, 3, *repo.setQty)
}

func TestClearRequiresValidBuyer(t *testing.T) {
	repo := &stubCartRepo{}
	svc, err := NewService(repo, &stubProductLoader{})
	require.NoError(t, err)

	err = svc.Clear(context.Background(), types.BuyerRef{})
	require.Error(t, err)
	assert.False(t, repo.cleared)

	require.NoError(t, svc.Clear(context.Background(), testBuyer()))
	assert.True(t, repo.cleared)
}

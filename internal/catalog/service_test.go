package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE products (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)), 2) || '-a' || substr(hex(randomblob(2)), 2) || '-' || hex(randomblob(6)))),
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  stock_quantity INTEGER,
  weight_kg REAL,
  owner_id TEXT NOT NULL,
  owner_kind TEXT NOT NULL,
  store_id TEXT,
  image_urls TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func newCatalogService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(db, NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, owner types.BuyerRef, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: 5000,
		OwnerID:    owner.ID,
		OwnerKind:  owner.Kind,
		ImageURLs:  types.JSONList{"https://images.example/1.jpg"},
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestCreatePersistsListing(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	owner := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPJ}

	stock := 3
	created, err := svc.Create(context.Background(), CreateInput{
		Owner:         owner,
		Name:          "  Vara de pesca  ",
		Description:   "carbono 2.1m",
		PriceCents:    12990,
		StockQuantity: &stock,
		ImageURLs:     []string{"https://images.example/vara.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Vara de pesca", created.Name)

	var row models.Product
	require.NoError(t, db.First(&row, "name = ?", "Vara de pesca").Error)
	assert.Equal(t, int64(12990), row.PriceCents)
	assert.Equal(t, owner.ID, row.OwnerID)
	assert.Equal(t, owner.Kind, row.OwnerKind)
	require.NotNil(t, row.Description)
	assert.Equal(t, "carbono 2.1m", *row.Description)
	require.NotNil(t, row.StockQuantity)
	assert.Equal(t, 3, *row.StockQuantity)
	assert.Equal(t, "https://images.example/vara.jpg", row.FirstImageURL())
}

func TestCreateRequiresImage(t *testing.T) {
	svc := newCatalogService(t, setupCatalogTestDB(t))

	_, err := svc.Create(context.Background(), CreateInput{
		Owner:      types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF},
		Name:       "isca",
		PriceCents: 900,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGetMissingProduct(t *testing.T) {
	svc := newCatalogService(t, setupCatalogTestDB(t))

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateOwnedProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	owner := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}
	product := seedProduct(t, db, owner, "molinete")

	name := "molinete 4000"
	price := int64(19900)
	updated, err := svc.Update(context.Background(), owner, product.ID, UpdateInput{
		Name:       &name,
		PriceCents: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "molinete 4000", updated.Name)
	assert.Equal(t, int64(19900), updated.PriceCents)

	var row models.Product
	require.NoError(t, db.First(&row, "id = ?", product.ID).Error)
	assert.Equal(t, "molinete 4000", row.Name)
	assert.Equal(t, int64(19900), row.PriceCents)
}

func TestUpdateRejectsForeignProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	product := seedProduct(t, db, types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}, "carretilha")

	price := int64(100)
	_, err := svc.Update(context.Background(), types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}, product.ID, UpdateInput{PriceCents: &price})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestDeleteRemovesListing(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	owner := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPJ}
	product := seedProduct(t, db, owner, "anzol")

	require.NoError(t, svc.Delete(context.Background(), owner, product.ID))

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Count(&count).Error)
	assert.Zero(t, count)

	// deleting someone else's listing is refused
	other := seedProduct(t, db, types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}, "linha")
	err := svc.Delete(context.Background(), owner, other.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestListByOwnerFiltersKind(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ownerID := uuid.New()

	seedProduct(t, db, types.BuyerRef{ID: ownerID, Kind: enums.BuyerKindPF}, "chumbada")
	seedProduct(t, db, types.BuyerRef{ID: ownerID, Kind: enums.BuyerKindPJ}, "boia")

	rows, err := svc.ListByOwner(context.Background(), types.BuyerRef{ID: ownerID, Kind: enums.BuyerKindPF}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "chumbada", rows[0].Name)
}

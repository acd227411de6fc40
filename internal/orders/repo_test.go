package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/blackbass-labs/blackbass-backend/pkg/pagination"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  store_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'created',
  buyer_pf_id TEXT,
  buyer_pj_id TEXT,
  seller_pf_id TEXT,
  seller_pj_id TEXT,
  total_cents INTEGER NOT NULL,
  payment_id TEXT,
  label_order_id TEXT,
  label_service_id INTEGER,
  label_url TEXT,
  label_company TEXT,
  label_service_name TEXT,
  tracking_code TEXT,
  label_issued_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  image_url TEXT,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE products (
  id TEXT PRIMARY KEY,
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
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, buyerPF uuid.UUID, storeID uuid.UUID, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:         uuid.New(),
		Code:       "LABCD-20260830-0001",
		StoreID:    storeID,
		Status:     enums.OrderStatusCreated,
		BuyerPFID:  &buyerPF,
		TotalCents: 5000,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestCreateOrderWithItemsStampsOrderID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerPF := uuid.New()

	order := &models.Order{
		ID:         uuid.New(),
		Code:       "LABCD-20260830-0002",
		StoreID:    uuid.New(),
		Status:     enums.OrderStatusCreated,
		BuyerPFID:  &buyerPF,
		TotalCents: 7500,
	}
	items := []models.OrderItem{
		{ID: uuid.New(), ProductID: uuid.New(), Name: "molinete", Quantity: 1, UnitPriceCents: 5000, SubtotalCents: 5000},
		{ID: uuid.New(), ProductID: uuid.New(), Name: "linha", Quantity: 5, UnitPriceCents: 500, SubtotalCents: 2500},
	}

	id, err := repo.CreateOrderWithItems(context.Background(), order, items)
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Items, 2)
	for _, item := range loaded.Items {
		assert.Equal(t, order.ID, item.OrderID)
	}
}

func TestCreateOrderWithItemsRollsBackHeaderOnItemFailure(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerPF := uuid.New()

	order := &models.Order{
		ID:         uuid.New(),
		Code:       "LABCD-20260830-0003",
		StoreID:    uuid.New(),
		Status:     enums.OrderStatusCreated,
		BuyerPFID:  &buyerPF,
		TotalCents: 5000,
	}
	dupID := uuid.New()
	items := []models.OrderItem{
		{ID: dupID, ProductID: uuid.New(), Name: "molinete", Quantity: 1, UnitPriceCents: 5000, SubtotalCents: 5000},
		{ID: dupID, ProductID: uuid.New(), Name: "linha", Quantity: 1, UnitPriceCents: 500, SubtotalCents: 500},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.WithTx(tx).CreateOrderWithItems(context.Background(), order, items)
		return err
	})
	require.Error(t, err)

	// the failed item insert must take the header down with it
	var headers int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&headers).Error)
	assert.Zero(t, headers)
}

func TestFindByIDMissingOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestListByBuyerPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerPF := uuid.New()
	storeID := uuid.New()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedOrder(t, db, buyerPF, storeID, base.Add(time.Duration(i)*time.Hour))
	}

	buyer := types.BuyerRef{ID: buyerPF, Kind: enums.BuyerKindPF}
	first, next, err := repo.ListByBuyer(context.Background(), buyer, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)
	// newest first
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	rest, next, err := repo.ListByBuyer(context.Background(), buyer, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
}

func TestListByBuyerIgnoresOtherKind(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerPF := uuid.New()
	seedOrder(t, db, buyerPF, uuid.New(), time.Now().UTC())

	rows, _, err := repo.ListByBuyer(context.Background(), types.BuyerRef{ID: buyerPF, Kind: enums.BuyerKindPJ}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateStatusByPaymentIDStampsAllOrders(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	buyerPF := uuid.New()
	paymentID := "98765"

	for i := 0; i < 2; i++ {
		order := seedOrder(t, db, buyerPF, uuid.New(), time.Now().UTC())
		require.NoError(t, db.Model(order).Update("payment_id", paymentID).Error)
	}
	seedOrder(t, db, buyerPF, uuid.New(), time.Now().UTC())

	affected, err := repo.UpdateStatusByPaymentID(context.Background(), paymentID, enums.OrderStatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	affected, err = repo.UpdateStatusByPaymentID(context.Background(), "unknown", enums.OrderStatusRefunded)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestSaveLabel(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, uuid.New(), uuid.New(), time.Now().UTC())

	err := repo.SaveLabel(context.Background(), order.ID, LabelRecord{
		LabelOrderID: "me-order-1",
		ServiceID:    2,
		LabelURL:     "https://labels.example/1.pdf",
		Company:      "Correios",
		Carrier:      "SEDEX",
	})
	require.NoError(t, err)

	loaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.HasLabel())
	require.NotNil(t, loaded.LabelURL)
	assert.Equal(t, "https://labels.example/1.pdf", *loaded.LabelURL)
	assert.NotNil(t, loaded.LabelIssuedAt)

	assert.ErrorIs(t, repo.SaveLabel(context.Background(), uuid.New(), LabelRecord{LabelOrderID: "x"}), gorm.ErrRecordNotFound)
}

func TestDecrementStock(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	stock := 5
	tracked := models.Product{
		ID:            uuid.New(),
		Name:          "anzol",
		PriceCents:    100,
		StockQuantity: &stock,
		OwnerID:       uuid.New(),
		OwnerKind:     enums.BuyerKindPJ,
	}
	untracked := models.Product{
		ID:         uuid.New(),
		Name:       "chumbada",
		PriceCents: 50,
		OwnerID:    uuid.New(),
		OwnerKind:  enums.BuyerKindPJ,
	}
	require.NoError(t, db.Create(&tracked).Error)
	require.NoError(t, db.Create(&untracked).Error)

	applied, err := repo.DecrementStock(context.Background(), tracked.ID, 3)
	require.NoError(t, err)
	assert.True(t, applied)

	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", tracked.ID).Error)
	require.NotNil(t, after.StockQuantity)
	assert.Equal(t, 2, *after.StockQuantity)

	// remaining stock below requested quantity leaves the row untouched
	applied, err = repo.DecrementStock(context.Background(), tracked.ID, 3)
	require.NoError(t, err)
	assert.False(t, applied)

	// untracked inventory is reported applied without a write
	applied, err = repo.DecrementStock(context.Background(), untracked.ID, 100)
	require.NoError(t, err)
	assert.True(t, applied)

	// unknown product
	applied, err = repo.DecrementStock(context.Background(), uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, applied)
}

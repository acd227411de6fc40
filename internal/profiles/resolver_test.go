package profiles

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

func setupProfilesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE buyer_profiles_pf (
  user_id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  cpf TEXT,
  postal_code TEXT,
  street TEXT,
  number TEXT,
  complement TEXT,
  district TEXT,
  city TEXT,
  state TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE buyer_profiles_pj (
  user_id TEXT PRIMARY KEY,
  company_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  cnpj TEXT,
  postal_code TEXT,
  street TEXT,
  number TEXT,
  complement TEXT,
  district TEXT,
  city TEXT,
  state TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func TestUpsertCreatesThenUpdatesPF(t *testing.T) {
	db := setupProfilesTestDB(t)
	resolver := NewResolver(db)
	buyer := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}

	profile, err := resolver.Upsert(context.Background(), buyer, UpsertInput{
		Name:       "Joana Silva",
		Email:      "joana@example.com",
		Phone:      "11999998888",
		Document:   "12345678901",
		PostalCode: "01310-100",
		City:       "São Paulo",
		State:      "SP",
	})
	require.NoError(t, err)
	assert.Equal(t, "Joana Silva", profile.Name)
	assert.Equal(t, "CPF", profile.DocumentType)
	assert.Equal(t, "12345678901", profile.Document)

	// a second submission replaces the row instead of duplicating it
	profile, err = resolver.Upsert(context.Background(), buyer, UpsertInput{
		Name:  "Joana S. Costa",
		Email: "joana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Joana S. Costa", profile.Name)
	assert.Empty(t, profile.Phone)

	var count int64
	require.NoError(t, db.Model(&models.BuyerProfilePF{}).Where("user_id = ?", buyer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertWritesPJTable(t *testing.T) {
	db := setupProfilesTestDB(t)
	resolver := NewResolver(db)
	buyer := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPJ}

	profile, err := resolver.Upsert(context.Background(), buyer, UpsertInput{
		Name:     "Pesca Forte LTDA",
		Email:    "contato@pescaforte.example",
		Document: "12345678000190",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.BuyerKindPJ, profile.Kind)
	assert.Equal(t, "CNPJ", profile.DocumentType)

	var row models.BuyerProfilePJ
	require.NoError(t, db.First(&row, "user_id = ?", buyer.ID).Error)
	assert.Equal(t, "Pesca Forte LTDA", row.CompanyName)
	require.NotNil(t, row.CNPJ)
	assert.Equal(t, "12345678000190", *row.CNPJ)
}

func TestUpsertRequiresNameAndEmail(t *testing.T) {
	resolver := NewResolver(setupProfilesTestDB(t))
	buyer := types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF}

	_, err := resolver.Upsert(context.Background(), buyer, UpsertInput{Email: "a@b.example"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = resolver.Upsert(context.Background(), buyer, UpsertInput{Name: "Joana"})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestResolveMissingProfile(t *testing.T) {
	resolver := NewResolver(setupProfilesTestDB(t))

	_, err := resolver.Resolve(context.Background(), types.BuyerRef{ID: uuid.New(), Kind: enums.BuyerKindPF})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

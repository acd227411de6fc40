package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

// Service owns listing CRUD for sellers. Reads go through the repository;
// stock decrements stay with the orders repository.
type Service struct {
	db       *gorm.DB
	products Repository
}

func NewService(gdb *gorm.DB, products Repository) (*Service, error) {
	if gdb == nil {
		return nil, fmt.Errorf("db required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &Service{db: gdb, products: products}, nil
}

// CreateInput carries a new listing. StoreID is optional; individual sellers
// without a storefront list directly under their account.
type CreateInput struct {
	Owner         types.BuyerRef
	StoreID       *uuid.UUID
	Name          string
	Description   string
	PriceCents    int64
	StockQuantity *int
	WeightKG      *float64
	ImageURLs     []string
}

// Create validates and persists a listing. At least one image is required.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if !input.Owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner ref is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be zero or more")
	}
	if len(input.ImageURLs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}

	product := models.Product{
		Name:          name,
		PriceCents:    input.PriceCents,
		StockQuantity: input.StockQuantity,
		WeightKG:      input.WeightKG,
		OwnerID:       input.Owner.ID,
		OwnerKind:     input.Owner.Kind,
		StoreID:       input.StoreID,
		ImageURLs:     types.JSONList(input.ImageURLs),
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		product.Description = &desc
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return &product, nil
}

// Get returns a listing by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// ListByOwner returns the seller's newest listings.
func (s *Service) ListByOwner(ctx context.Context, owner types.BuyerRef, limit int) ([]models.Product, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner ref is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND owner_kind = ?", owner.ID, owner.Kind).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return products, nil
}

// UpdateInput carries a partial edit; nil fields are left untouched.
type UpdateInput struct {
	Name          *string
	Description   *string
	PriceCents    *int64
	StockQuantity *int
	WeightKG      *float64
	ImageURLs     []string
}

// Update edits a listing the caller owns.
func (s *Service) Update(ctx context.Context, owner types.BuyerRef, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.Description != nil {
		if desc := strings.TrimSpace(*input.Description); desc != "" {
			product.Description = &desc
		} else {
			product.Description = nil
		}
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be zero or more")
		}
		product.StockQuantity = input.StockQuantity
	}
	if input.WeightKG != nil {
		product.WeightKG = input.WeightKG
	}
	if input.ImageURLs != nil {
		if len(input.ImageURLs) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
		}
		product.ImageURLs = types.JSONList(input.ImageURLs)
	}

	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return product, nil
}

// Delete removes a listing the caller owns.
func (s *Service) Delete(ctx context.Context, owner types.BuyerRef, id uuid.UUID) error {
	product, err := s.ownedProduct(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(product).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *Service) ownedProduct(ctx context.Context, owner types.BuyerRef, id uuid.UUID) (*models.Product, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner ref is required")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.OwnerID != owner.ID || product.OwnerKind != owner.Kind {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}
	return product, nil
}

package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart persistence operations.
type Service interface {
	Snapshot(ctx context.Context, buyer types.BuyerRef) ([]Line, error)
	Add(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID, quantity int) error
	Increment(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error
	Decrement(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error
	Remove(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error
	Clear(ctx context.Context, buyer types.BuyerRef) error
}

type service struct {
	repo     Repository
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// Snapshot returns the buyer's cart joined with live product attributes.
// An empty cart yields an empty slice, not an error.
func (s *service) Snapshot(ctx context.Context, buyer types.BuyerRef) ([]Line, error) {
	if !buyer.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	lines, err := s.repo.Snapshot(ctx, buyer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart snapshot")
	}
	return lines, nil
}

// Add sets the buyer's line for the product to the given quantity,
// creating it when absent.
func (s *service) Add(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID, quantity int) error {
	if !buyer.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	line := &models.CartLine{
		BuyerID:   buyer.ID,
		BuyerKind: buyer.Kind,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.repo.UpsertLine(ctx, line); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert cart line")
	}
	return nil
}

// Increment bumps an existing line by one.
func (s *service) Increment(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error {
	line, err := s.mustFindLine(ctx, buyer, productID)
	if err != nil {
		return err
	}
	if err := s.repo.SetQuantity(ctx, buyer, productID, line.Quantity+1); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment cart line")
	}
	return nil
}

// Decrement lowers an existing line by one and deletes it at zero so a
// quantity of zero is never persisted.
func (s *service) Decrement(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error {
	line, err := s.mustFindLine(ctx, buyer, productID)
	if err != nil {
		return err
	}
	if line.Quantity <= 1 {
		if err := s.repo.DeleteLine(ctx, buyer, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
		}
		return nil
	}
	if err := s.repo.SetQuantity(ctx, buyer, productID, line.Quantity-1); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement cart line")
	}
	return nil
}

// Remove deletes the line regardless of quantity.
func (s *service) Remove(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) error {
	if !buyer.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.DeleteLine(ctx, buyer, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart line")
	}
	return nil
}

// Clear wipes the buyer's cart.
func (s *service) Clear(ctx context.Context, buyer types.BuyerRef) error {
	if !buyer.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	if err := s.repo.Clear(ctx, buyer); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) mustFindLine(ctx context.Context, buyer types.BuyerRef, productID uuid.UUID) (*models.CartLine, error) {
	if !buyer.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	line, err := s.repo.FindLine(ctx, buyer, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return line, nil
}

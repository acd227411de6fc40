package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blackbass-labs/blackbass-backend/pkg/db"
	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service is a thin review CRUD layer: one review per buyer per product.
type Service struct {
	db       *gorm.DB
	products productLoader
}

func NewService(gdb *gorm.DB, products productLoader) (*Service, error) {
	if gdb == nil {
		return nil, fmt.Errorf("db required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &Service{db: gdb, products: products}, nil
}

// CreateInput carries a new review.
type CreateInput struct {
	Buyer     types.BuyerRef
	ProductID uuid.UUID
	Rating    int
	Comment   string
}

// Create writes a review. The unique (buyer, product) constraint turns a
// second submission into a conflict.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Review, error) {
	if !input.Buyer.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer ref is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	review := models.Review{
		ProductID: input.ProductID,
		BuyerID:   input.Buyer.ID,
		BuyerKind: input.Buyer.Kind,
		Rating:    input.Rating,
	}
	if comment := strings.TrimSpace(input.Comment); comment != "" {
		review.Comment = &comment
	}

	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return &review, nil
}

// ListForProduct returns the newest reviews for a product.
func (s *Service) ListForProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.Review
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	return rows, nil
}

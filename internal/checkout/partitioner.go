package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/internal/cart"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

// Item is one cart line normalized for order creation: effective quantity
// applied and the price snapshot frozen.
type Item struct {
	ProductID      uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int64
	SubtotalCents  int64
	ImageURL       string
	WeightKG       float64
	SellerID       uuid.UUID
	SellerKind     string
}

// PartitionByStore groups cart lines by the store that owns each product.
// Lines whose product carries no store are skipped with a warning rather
// than failing the checkout. A tracked-stock shortfall on any line rejects
// the whole operation so the buyer never pays for a partial cart.
func PartitionByStore(ctx context.Context, logg *logger.Logger, lines []cart.Line) (map[uuid.UUID][]Item, error) {
	partitions := make(map[uuid.UUID][]Item)

	for _, line := range lines {
		if line.StoreID == nil || *line.StoreID == uuid.Nil {
			if logg != nil {
				warnCtx := logg.WithFields(ctx, map[string]any{"product_id": line.ProductID.String()})
				logg.Warn(warnCtx, "checkout skipping product without store")
			}
			continue
		}

		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}

		if line.StockQuantity != nil && *line.StockQuantity < quantity {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", line.Name))
		}

		weight := 0.0
		if line.WeightKG != nil {
			weight = *line.WeightKG
		}

		storeID := *line.StoreID
		partitions[storeID] = append(partitions[storeID], Item{
			ProductID:      line.ProductID,
			Name:           line.Name,
			Quantity:       quantity,
			UnitPriceCents: line.PriceCents,
			SubtotalCents:  line.PriceCents * int64(quantity),
			ImageURL:       line.ImageURL,
			WeightKG:       weight,
			SellerID:       line.OwnerID,
			SellerKind:     string(line.OwnerKind),
		})
	}

	if len(partitions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing valid to checkout")
	}
	return partitions, nil
}

package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/blackbass-labs/blackbass-backend/pkg/types"
)

type contextKey string

const (
	ctxBuyerID   contextKey = "buyer_id"
	ctxBuyerKind contextKey = "buyer_kind"
	ctxStoreID   contextKey = "store_id"
)

// BuyerRefFromContext returns the authenticated buyer ref, or a zero ref
// when the request is unauthenticated.
func BuyerRefFromContext(ctx context.Context) types.BuyerRef {
	if ctx == nil {
		return types.BuyerRef{}
	}
	idStr, _ := ctx.Value(ctxBuyerID).(string)
	kindStr, _ := ctx.Value(ctxBuyerKind).(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return types.BuyerRef{}
	}
	kind, err := enums.ParseBuyerKind(kindStr)
	if err != nil {
		return types.BuyerRef{}
	}
	return types.BuyerRef{ID: id, Kind: kind}
}

// StoreIDFromContext returns the seller's active store id, if any.
func StoreIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStoreID).(string); ok {
		return v
	}
	return ""
}

// WithBuyerRef injects the buyer identity into the context.
func WithBuyerRef(ctx context.Context, ref types.BuyerRef) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxBuyerID, ref.ID.String())
	return context.WithValue(ctx, ctxBuyerKind, string(ref.Kind))
}

// WithStoreID injects the store identifier into the context for downstream handlers.
func WithStoreID(ctx context.Context, storeID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxStoreID, storeID)
}

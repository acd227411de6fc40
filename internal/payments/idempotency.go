package payments

import (
	"context"
	"errors"
	"time"

	"github.com/blackbass-labs/blackbass-backend/pkg/redis"
)

const webhookGuardScope = "mp_webhook"

// IdempotencyGuard is the redis fast-path in front of the durable ledger.
// It cheaply drops duplicate webhook deliveries; the ledger remains the
// source of truth when redis forgets.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark marks the payment id and reports whether it was already
// marked. Redis failures are returned so the caller can decide to proceed.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, paymentID string) (bool, error) {
	key := g.store.IdempotencyKey(webhookGuardScope, paymentID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Release removes the mark so the provider's retry can reprocess after a
// handling failure.
func (g *IdempotencyGuard) Release(ctx context.Context, paymentID string) error {
	return g.store.Del(ctx, g.store.IdempotencyKey(webhookGuardScope, paymentID))
}

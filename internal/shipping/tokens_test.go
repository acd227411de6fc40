package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/melhorenvio"
)

type stubTokenRepo struct {
	token    *models.ShippingToken
	upserted *models.ShippingToken
}

func (s *stubTokenRepo) Find(ctx context.Context, storeID uuid.UUID) (*models.ShippingToken, error) {
	return s.token, nil
}

func (s *stubTokenRepo) Upsert(ctx context.Context, token *models.ShippingToken) error {
	s.upserted = token
	return nil
}

type stubRefresher struct {
	resp   *melhorenvio.TokenResponse
	err    error
	called bool
	got    string
}

func (s *stubRefresher) Refresh(ctx context.Context, refreshToken string) (*melhorenvio.TokenResponse, error) {
	s.called = true
	s.got = refreshToken
	return s.resp, s.err
}

func newTokenManager(t *testing.T, repo TokenRepository, me tokenRefresher, at time.Time) *TokenManager {
	t.Helper()
	mgr, err := NewTokenManager(repo, me, 5*time.Minute, nil)
	require.NoError(t, err)
	mgr.now = func() time.Time { return at }
	return mgr
}

func TestGetReturnsTokenOutsideSkewWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	expiresAt := now.Add(10 * time.Minute)
	repo := &stubTokenRepo{token: &models.ShippingToken{
		StoreID:      uuid.New(),
		AccessToken:  "live-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    &expiresAt,
	}}
	me := &stubRefresher{}
	mgr := newTokenManager(t, repo, me, now)

	token, err := mgr.Get(context.Background(), repo.token.StoreID)
	require.NoError(t, err)
	assert.Equal(t, "live-token", token)
	assert.False(t, me.called)
}

func TestGetRefreshesInsideSkewWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	expiresAt := now.Add(4 * time.Minute)
	storeID := uuid.New()
	repo := &stubTokenRepo{token: &models.ShippingToken{
		StoreID:      storeID,
		AccessToken:  "stale-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    &expiresAt,
	}}
	me := &stubRefresher{resp: &melhorenvio.TokenResponse{
		AccessToken:  "fresh-token",
		RefreshToken: "fresh-refresh",
		ExpiresIn:    2592000,
	}}
	mgr := newTokenManager(t, repo, me, now)

	token, err := mgr.Get(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, "refresh-token", me.got)

	require.NotNil(t, repo.upserted)
	assert.Equal(t, storeID, repo.upserted.StoreID)
	assert.Equal(t, "fresh-refresh", repo.upserted.RefreshToken)
	require.NotNil(t, repo.upserted.ExpiresAt)
	assert.Equal(t, now.Add(2592000*time.Second), *repo.upserted.ExpiresAt)
}

func TestGetFallsBackToLegacyExpiry(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	expiresIn := int64(3600)
	repo := &stubTokenRepo{token: &models.ShippingToken{
		StoreID:      uuid.New(),
		AccessToken:  "legacy-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    &expiresIn,
		CreatedAt:    now.Add(-30 * time.Minute),
	}}
	me := &stubRefresher{}
	mgr := newTokenManager(t, repo, me, now)

	// created 30m ago with a 60m lifetime leaves 30m, well past the skew
	token, err := mgr.Get(context.Background(), repo.token.StoreID)
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", token)
	assert.False(t, me.called)
}

func TestGetTreatsRowWithoutExpiryAsExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := &stubTokenRepo{token: &models.ShippingToken{
		StoreID:      uuid.New(),
		AccessToken:  "mystery-token",
		RefreshToken: "refresh-token",
	}}
	me := &stubRefresher{resp: &melhorenvio.TokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600}}
	mgr := newTokenManager(t, repo, me, now)

	token, err := mgr.Get(context.Background(), repo.token.StoreID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.True(t, me.called)
}

func TestGetExpiredWithoutRefreshToken(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	expiresAt := now.Add(time.Minute)
	repo := &stubTokenRepo{token: &models.ShippingToken{
		StoreID:     uuid.New(),
		AccessToken: "stale-token",
		ExpiresAt:   &expiresAt,
	}}
	me := &stubRefresher{}
	mgr := newTokenManager(t, repo, me, now)

	_, err := mgr.Get(context.Background(), repo.token.StoreID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.False(t, me.called)
}

func TestGetWithoutConnectedStore(t *testing.T) {
	mgr := newTokenManager(t, &stubTokenRepo{}, &stubRefresher{}, time.Now())

	_, err := mgr.Get(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestGetSurfacesRefreshFailure(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := &stubTokenRepo{token: &models.ShippingToken{
		StoreID:      uuid.New(),
		AccessToken:  "stale-token",
		RefreshToken: "refresh-token",
	}}
	me := &stubRefresher{err: errors.New("provider down")}
	mgr := newTokenManager(t, repo, me, now)

	_, err := mgr.Get(context.Background(), repo.token.StoreID)
	require.Error(t, err)
	assert.Nil(t, repo.upserted)
}

func TestStoreDefaultsTokenType(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	repo := &stubTokenRepo{}
	mgr := newTokenManager(t, repo, &stubRefresher{}, now)
	storeID := uuid.New()

	err := mgr.Store(context.Background(), storeID, &melhorenvio.TokenResponse{
		AccessToken:  "fresh-token",
		RefreshToken: "fresh-refresh",
		ExpiresIn:    3600,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, "Bearer", repo.upserted.TokenType)

	err = mgr.Store(context.Background(), storeID, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

package shipping

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/melhorenvio"
)

type fakeStateStore struct {
	values  map[string]string
	deleted []string
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{values: make(map[string]string)}
}

func (s *fakeStateStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return value, nil
}

func (s *fakeStateStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *fakeStateStore) OAuthStateKey(storeID string) string {
	return "me_oauth_state:" + storeID
}

func (s *fakeStateStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

type stubAuthorizer struct {
	token       *melhorenvio.TokenResponse
	exchangeErr error
	code        string
}

func (s *stubAuthorizer) AuthorizeURL(state string) string {
	return "https://aggregator.example/oauth/authorize?state=" + state
}

func (s *stubAuthorizer) ExchangeCode(ctx context.Context, code string) (*melhorenvio.TokenResponse, error) {
	s.code = code
	return s.token, s.exchangeErr
}

func newOAuthFixture(t *testing.T) (*OAuthFlow, *fakeStateStore, *stubAuthorizer, *stubTokenRepo) {
	t.Helper()
	repo := &stubTokenRepo{}
	tokens, err := NewTokenManager(repo, &stubRefresher{}, 5*time.Minute, nil)
	require.NoError(t, err)

	me := &stubAuthorizer{token: &melhorenvio.TokenResponse{
		AccessToken:  "granted-token",
		RefreshToken: "granted-refresh",
		ExpiresIn:    2592000,
	}}
	states := newFakeStateStore()
	flow, err := NewOAuthFlow(me, states, tokens, 10*time.Minute, nil)
	require.NoError(t, err)
	return flow, states, me, repo
}

func TestConnectStashesStateAndBuildsURL(t *testing.T) {
	flow, states, _, _ := newOAuthFixture(t)
	storeID := uuid.New()

	url, err := flow.Connect(context.Background(), storeID)
	require.NoError(t, err)

	stashed := states.values[states.OAuthStateKey(storeID.String())]
	require.NotEmpty(t, stashed)
	assert.True(t, strings.HasPrefix(stashed, storeID.String()+":"))
	assert.Contains(t, url, "state="+stashed)
}

func TestConnectRequiresStore(t *testing.T) {
	flow, _, _, _ := newOAuthFixture(t)

	_, err := flow.Connect(context.Background(), uuid.Nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestCallbackExchangesAndPersists(t *testing.T) {
	flow, states, me, repo := newOAuthFixture(t)
	storeID := uuid.New()

	_, err := flow.Connect(context.Background(), storeID)
	require.NoError(t, err)
	state := states.values[states.OAuthStateKey(storeID.String())]

	got, err := flow.Callback(context.Background(), "auth-code", state)
	require.NoError(t, err)
	assert.Equal(t, storeID, got)
	assert.Equal(t, "auth-code", me.code)

	require.NotNil(t, repo.upserted)
	assert.Equal(t, storeID, repo.upserted.StoreID)
	assert.Equal(t, "granted-token", repo.upserted.AccessToken)

	// state is single use
	assert.Contains(t, states.deleted, states.OAuthStateKey(storeID.String()))
	_, err = flow.Callback(context.Background(), "auth-code", state)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestCallbackRejectsForgedState(t *testing.T) {
	flow, _, _, repo := newOAuthFixture(t)
	storeID := uuid.New()

	_, err := flow.Connect(context.Background(), storeID)
	require.NoError(t, err)

	forged, err := mintState(storeID)
	require.NoError(t, err)

	_, err = flow.Callback(context.Background(), "auth-code", forged)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Nil(t, repo.upserted)
}

func TestCallbackRejectsMalformedState(t *testing.T) {
	flow, _, _, _ := newOAuthFixture(t)

	for _, state := range []string{"", "not-a-state", "nope:123:abc", uuid.NewString() + ":ts:abc"} {
		_, err := flow.Callback(context.Background(), "auth-code", state)
		require.Error(t, err, state)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	}
}

func TestCallbackSurfacesExchangeFailure(t *testing.T) {
	flow, states, me, repo := newOAuthFixture(t)
	me.exchangeErr = errors.New("provider down")
	storeID := uuid.New()

	_, err := flow.Connect(context.Background(), storeID)
	require.NoError(t, err)
	state := states.values[states.OAuthStateKey(storeID.String())]

	_, err = flow.Callback(context.Background(), "auth-code", state)
	require.Error(t, err)
	assert.Nil(t, repo.upserted)
}

package shipping

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/melhorenvio"
	"github.com/blackbass-labs/blackbass-backend/pkg/redis"
)

type authorizer interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*melhorenvio.TokenResponse, error)
}

// OAuthFlow runs the store-facing aggregator OAuth dance. The state token
// embeds the store id and is stashed in redis so the callback can verify
// byte equality before trusting the store id inside it.
type OAuthFlow struct {
	me       authorizer
	states   redis.StateStore
	tokens   *TokenManager
	stateTTL time.Duration
	logg     *logger.Logger
}

// NewOAuthFlow builds the OAuth flow helper.
func NewOAuthFlow(me authorizer, states redis.StateStore, tokens *TokenManager, stateTTL time.Duration, logg *logger.Logger) (*OAuthFlow, error) {
	if me == nil {
		return nil, fmt.Errorf("aggregator client required")
	}
	if states == nil {
		return nil, fmt.Errorf("state store required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token manager required")
	}
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	return &OAuthFlow{me: me, states: states, tokens: tokens, stateTTL: stateTTL, logg: logg}, nil
}

// Connect mints a fresh state for the store, stashes it, and returns the
// provider authorization URL to redirect the seller to.
func (f *OAuthFlow) Connect(ctx context.Context, storeID uuid.UUID) (string, error) {
	if storeID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "store context required")
	}

	state, err := mintState(storeID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint oauth state")
	}
	key := f.states.OAuthStateKey(storeID.String())
	if err := f.states.Set(ctx, key, state, f.stateTTL); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stash oauth state")
	}

	return f.me.AuthorizeURL(state), nil
}

// Callback validates the returned state against the stashed one, exchanges
// the code, and persists the token pair for the store named in the state.
func (f *OAuthFlow) Callback(ctx context.Context, code, state string) (uuid.UUID, error) {
	storeID, err := storeFromState(state)
	if err != nil {
		return uuid.Nil, err
	}

	key := f.states.OAuthStateKey(storeID.String())
	stashed, err := f.states.Get(ctx, key)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "oauth state not found")
	}
	if subtle.ConstantTimeCompare([]byte(stashed), []byte(state)) != 1 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "oauth state mismatch")
	}
	if err := f.states.Del(ctx, key); err != nil && f.logg != nil {
		f.logg.Error(ctx, "delete consumed oauth state", err)
	}

	token, err := f.me.ExchangeCode(ctx, code)
	if err != nil {
		return uuid.Nil, err
	}
	if err := f.tokens.Store(ctx, storeID, token); err != nil {
		return uuid.Nil, err
	}

	if f.logg != nil {
		f.logg.Info(f.logg.WithStoreID(ctx, storeID.String()), "shipping account connected")
	}
	return storeID, nil
}

// mintState builds "<storeID>:<unix>:<random>" so the callback can recover
// the store without a session while the stash proves the state is ours.
func mintState(storeID uuid.UUID) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s", storeID, time.Now().Unix(), hex.EncodeToString(buf)), nil
}

func storeFromState(state string) (uuid.UUID, error) {
	parts := strings.SplitN(state, ":", 3)
	if len(parts) != 3 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed oauth state")
	}
	storeID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed oauth state")
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "malformed oauth state")
	}
	return storeID, nil
}

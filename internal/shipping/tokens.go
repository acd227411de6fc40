package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blackbass-labs/blackbass-backend/pkg/db/models"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
	"github.com/blackbass-labs/blackbass-backend/pkg/melhorenvio"
)

// TokenRepository persists one aggregator OAuth grant per store.
type TokenRepository interface {
	Find(ctx context.Context, storeID uuid.UUID) (*models.ShippingToken, error)
	Upsert(ctx context.Context, token *models.ShippingToken) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Find(ctx context.Context, storeID uuid.UUID) (*models.ShippingToken, error) {
	var token models.ShippingToken
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) Upsert(ctx context.Context, token *models.ShippingToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token", "refresh_token", "token_type", "expires_at", "expires_in", "updated_at",
			}),
		}).
		Create(token).Error
}

type tokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*melhorenvio.TokenResponse, error)
}

// TokenManager hands out a usable access token per store, refreshing it
// when it is inside the expiry skew window.
type TokenManager struct {
	repo TokenRepository
	me   tokenRefresher
	skew time.Duration
	logg *logger.Logger
	now  func() time.Time
}

// NewTokenManager builds a token manager with the given refresh skew.
func NewTokenManager(repo TokenRepository, me tokenRefresher, skew time.Duration, logg *logger.Logger) (*TokenManager, error) {
	if repo == nil {
		return nil, fmt.Errorf("token repository required")
	}
	if me == nil {
		return nil, fmt.Errorf("token refresher required")
	}
	if skew <= 0 {
		skew = 5 * time.Minute
	}
	return &TokenManager{repo: repo, me: me, skew: skew, logg: logg, now: time.Now}, nil
}

// Get returns a valid access token for the store, refreshing and persisting
// first when the current one expires within the skew window.
func (m *TokenManager) Get(ctx context.Context, storeID uuid.UUID) (string, error) {
	token, err := m.repo.Find(ctx, storeID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipping token")
	}
	if token == nil {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "store has not connected shipping")
	}

	if !m.needsRefresh(token) {
		return token.AccessToken, nil
	}
	if token.RefreshToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "shipping token expired, reconnect shipping")
	}

	fresh, err := m.me.Refresh(ctx, token.RefreshToken)
	if err != nil {
		return "", err
	}
	updated := m.rowFromResponse(storeID, fresh)
	if err := m.repo.Upsert(ctx, updated); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist refreshed shipping token")
	}
	if m.logg != nil {
		m.logg.Info(m.logg.WithStoreID(ctx, storeID.String()), "shipping token refreshed")
	}
	return updated.AccessToken, nil
}

// Store persists a freshly exchanged token pair for the store.
func (m *TokenManager) Store(ctx context.Context, storeID uuid.UUID, resp *melhorenvio.TokenResponse) error {
	if resp == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "token response required")
	}
	if err := m.repo.Upsert(ctx, m.rowFromResponse(storeID, resp)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist shipping token")
	}
	return nil
}

// needsRefresh applies the skew window against the stored expiry. Rows from
// before the expires_at column existed fall back to created_at + expires_in;
// a row with neither is treated as expired.
func (m *TokenManager) needsRefresh(token *models.ShippingToken) bool {
	deadline := m.now().Add(m.skew)
	if token.ExpiresAt != nil {
		return !token.ExpiresAt.After(deadline)
	}
	if token.ExpiresIn != nil {
		legacy := token.CreatedAt.Add(time.Duration(*token.ExpiresIn) * time.Second)
		return !legacy.After(deadline)
	}
	return true
}

func (m *TokenManager) rowFromResponse(storeID uuid.UUID, resp *melhorenvio.TokenResponse) *models.ShippingToken {
	expiresAt := m.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &models.ShippingToken{
		StoreID:      storeID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    tokenType,
		ExpiresAt:    &expiresAt,
		ExpiresIn:    &resp.ExpiresIn,
	}
}

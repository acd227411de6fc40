package auth

import (
	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	Kind    enums.BuyerKind
	StoreID *uuid.UUID
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients. Kind travels
// in the token so every request resolves to an explicit pf/pj buyer ref.
type AccessTokenClaims struct {
	UserID  uuid.UUID       `json:"user_id"`
	Kind    enums.BuyerKind `json:"kind"`
	StoreID *uuid.UUID      `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}

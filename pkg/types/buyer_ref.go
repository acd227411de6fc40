package types

import (
	"fmt"

	"github.com/blackbass-labs/blackbass-backend/pkg/enums"
	"github.com/google/uuid"
)

// BuyerRef identifies a marketplace participant together with the legal
// shape of their account. It is passed explicitly everywhere a PF or PJ
// column must be chosen; ambient session state is never consulted.
type BuyerRef struct {
	ID   uuid.UUID       `json:"id"`
	Kind enums.BuyerKind `json:"kind"`
}

// NewBuyerRef validates and builds a BuyerRef.
func NewBuyerRef(id uuid.UUID, kind enums.BuyerKind) (BuyerRef, error) {
	if id == uuid.Nil {
		return BuyerRef{}, fmt.Errorf("buyer id is required")
	}
	if !kind.IsValid() {
		return BuyerRef{}, fmt.Errorf("invalid buyer kind %q", kind)
	}
	return BuyerRef{ID: id, Kind: kind}, nil
}

// Valid reports whether the ref carries a usable id and kind.
func (b BuyerRef) Valid() bool {
	return b.ID != uuid.Nil && b.Kind.IsValid()
}

func (b BuyerRef) String() string {
	return fmt.Sprintf("%s:%s", b.Kind, b.ID)
}

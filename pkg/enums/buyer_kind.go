package enums

import "fmt"

// BuyerKind distinguishes individual (pf) from business (pj) marketplace
// participants. Every buyer-scoped row carries one of the two.
type BuyerKind string

const (
	BuyerKindPF BuyerKind = "pf"
	BuyerKindPJ BuyerKind = "pj"
)

var validBuyerKinds = []BuyerKind{BuyerKindPF, BuyerKindPJ}

// String implements fmt.Stringer.
func (b BuyerKind) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BuyerKind.
func (b BuyerKind) IsValid() bool {
	for _, candidate := range validBuyerKinds {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBuyerKind converts raw input into a BuyerKind.
func ParseBuyerKind(value string) (BuyerKind, error) {
	for _, candidate := range validBuyerKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid buyer kind %q", value)
}

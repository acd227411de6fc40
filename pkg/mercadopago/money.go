package mercadopago

import "github.com/shopspring/decimal"

var centsPerUnit = decimal.NewFromInt(100)

// PriceFromCents converts integer cents into the currency-unit float the
// provider expects, rounding to two places so 1999 becomes exactly 19.99.
func PriceFromCents(cents int64) float64 {
	value, _ := decimal.NewFromInt(cents).Div(centsPerUnit).Round(2).Float64()
	return value
}

// CentsFromPrice converts a provider currency-unit amount back into cents.
func CentsFromPrice(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(centsPerUnit).Round(0).IntPart()
}

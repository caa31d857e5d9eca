// Package dto holds the JSON shapes exchanged over HTTP.
package dto

import "github.com/shopspring/decimal"

// Money is an amount rendered as a bare JSON number, e.g. 100 or 12.5.
// Other encodings of decimal.Decimal (event payloads, cache entries) keep the
// library's quoted default.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return (*decimal.Decimal)(m).UnmarshalJSON(data)
}

// Decimal returns m as a decimal.Decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.Decimal(m)
}

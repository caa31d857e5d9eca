package entity

import (
	"math"

	"github.com/shopspring/decimal"
)

// Column limits of the ventas schema. Prices are DECIMAL(10,2), totals and
// subtotals DECIMAL(12,2) and quantities INT.
var (
	MaxPrice  = decimal.RequireFromString("99999999.99")
	MaxAmount = decimal.RequireFromString("9999999999.99")
)

const MaxQuantity = math.MaxInt32

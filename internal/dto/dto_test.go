package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/ventas/internal/entity"
)

func TestMoney_JSON(t *testing.T) {
	line := NewOrderLine(entity.OrderLineSummary{
		ID:       1,
		Price:    decimal.RequireFromString("9.99"),
		Quantity: 3,
		Subtotal: decimal.RequireFromString("29.97"),
	})

	raw, err := json.Marshal(line)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lineId":1,"orderId":0,"productId":0,"price":9.99,"quantity":3,"subtotal":29.97}`, string(raw))

	var decoded OrderLine
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decimal.RequireFromString("29.97").Equal(decoded.Subtotal.Decimal()))
}

func TestMoney_LeavesDecimalDefaultAlone(t *testing.T) {
	_ = NewProduct(entity.Product{MinPrice: decimal.NewFromInt(1)})

	raw, err := json.Marshal(struct {
		Total decimal.Decimal `json:"total"`
	}{Total: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":"12.5"}`, string(raw))
}

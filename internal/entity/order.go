package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderHeader is the top-level record of a customer order.
type OrderHeader struct {
	bun.BaseModel `bun:"table:pedido_enc,alias:o"`

	ID        int64           `bun:"id_pedido,pk,autoincrement"`
	ClientID  int64           `bun:"id_cliente,notnull"`
	CreatedAt time.Time       `bun:"fecha,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	Total     decimal.Decimal `bun:"total_pedido,type:decimal(12,2),notnull"`
	Status    Status          `bun:"estado,notnull"`
}

// OrderLine is one product entry within an order.
type OrderLine struct {
	bun.BaseModel `bun:"table:pedido_det,alias:d"`

	ID        int64           `bun:"id_detalle,pk,autoincrement"`
	OrderID   int64           `bun:"id_pedido,notnull"`
	ProductID int64           `bun:"id_producto,notnull"`
	Price     decimal.Decimal `bun:"precio_venta,type:decimal(10,2),notnull"`
	Quantity  int64           `bun:"cantidad_venta,notnull"`
	Subtotal  decimal.Decimal `bun:"subtotal_venta,type:decimal(12,2),notnull"`
}

// ComputeSubtotal sets Subtotal to Price * Quantity.
func (l *OrderLine) ComputeSubtotal() {
	l.Subtotal = l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// OrderSummary is an order header joined with its client's name.
type OrderSummary struct {
	ID         int64           `bun:"id_pedido"`
	ClientID   int64           `bun:"id_cliente"`
	ClientName string          `bun:"nombre_cliente"`
	CreatedAt  time.Time       `bun:"fecha"`
	Total      decimal.Decimal `bun:"total_pedido"`
	Status     Status          `bun:"estado"`
}

// OrderLineSummary is an order line joined with its product's name.
type OrderLineSummary struct {
	ID          int64           `bun:"id_detalle"`
	OrderID     int64           `bun:"id_pedido"`
	ProductID   int64           `bun:"id_producto"`
	ProductName string          `bun:"nombre_producto"`
	Price       decimal.Decimal `bun:"precio_venta"`
	Quantity    int64           `bun:"cantidad_venta"`
	Subtotal    decimal.Decimal `bun:"subtotal_venta"`
}

// Order is a header together with its lines.
type Order struct {
	Header OrderSummary
	Lines  []OrderLineSummary
}

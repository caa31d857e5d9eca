package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/ventas/internal/entity"
)

// Order is an order header joined with its client's name.
type Order struct {
	ID         int64         `json:"orderId"`
	ClientID   int64         `json:"clientId"`
	ClientName string        `json:"clientName,omitempty"`
	Date       time.Time     `json:"date"`
	Total      Money         `json:"total"`
	Status     entity.Status `json:"status"`
}

// OrderLine is an order line joined with its product's name.
type OrderLine struct {
	ID          int64  `json:"lineId"`
	OrderID     int64  `json:"orderId"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Price       Money  `json:"price"`
	Quantity    int64  `json:"quantity"`
	Subtotal    Money  `json:"subtotal"`
}

// OrderDetail is a header with all of its lines.
type OrderDetail struct {
	Order
	Lines []OrderLine `json:"lines"`
}

// CreateOrderHeaderRequest is the body of POST /pedido_enc.
type CreateOrderHeaderRequest struct {
	ClientID *int64           `json:"clientId" validate:"required,gt=0"`
	Total    *decimal.Decimal `json:"total" validate:"required"`
	Status   string           `json:"status" validate:"omitempty,max=10"`
}

// OrderCreated is the body returned after creating an order header.
type OrderCreated struct {
	ID int64 `json:"orderId"`
}

// CreateOrderLineRequest is the body of POST /pedido_det.
type CreateOrderLineRequest struct {
	OrderID   *int64           `json:"orderId" validate:"required,gt=0"`
	ProductID *int64           `json:"productId" validate:"required,gt=0"`
	Price     *decimal.Decimal `json:"price" validate:"required"`
	Quantity  *int64           `json:"quantity" validate:"required,gte=0,lte=2147483647"`
}

// OrderLineCreated is the body returned after creating an order line.
type OrderLineCreated struct {
	ID int64 `json:"lineId"`
}

// CreateOrderRequest is the body of POST /pedidos.
type CreateOrderRequest struct {
	ClientID *int64                   `json:"clientId" validate:"required,gt=0"`
	Status   string                   `json:"status" validate:"omitempty,max=10"`
	Lines    []CreateOrderItemRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreateOrderItemRequest is one line of CreateOrderRequest.
type CreateOrderItemRequest struct {
	ProductID *int64           `json:"productId" validate:"required,gt=0"`
	Price     *decimal.Decimal `json:"price" validate:"required"`
	Quantity  *int64           `json:"quantity" validate:"required,gte=0,lte=2147483647"`
}

// NewOrder maps an order summary.
func NewOrder(o entity.OrderSummary) Order {
	return Order{
		ID:         o.ID,
		ClientID:   o.ClientID,
		ClientName: o.ClientName,
		Date:       o.CreatedAt,
		Total:      Money(o.Total),
		Status:     o.Status,
	}
}

// NewOrders maps an order listing.
func NewOrders(orders []entity.OrderSummary) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrder(o))
	}
	return out
}

// NewOrderLine maps an order line summary.
func NewOrderLine(l entity.OrderLineSummary) OrderLine {
	return OrderLine{
		ID:          l.ID,
		OrderID:     l.OrderID,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		Price:       Money(l.Price),
		Quantity:    l.Quantity,
		Subtotal:    Money(l.Subtotal),
	}
}

// NewOrderLines maps an order line listing.
func NewOrderLines(lines []entity.OrderLineSummary) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, NewOrderLine(l))
	}
	return out
}

// NewOrderDetail maps a header with its lines.
func NewOrderDetail(o *entity.Order) OrderDetail {
	return OrderDetail{
		Order: NewOrder(o.Header),
		Lines: NewOrderLines(o.Lines),
	}
}

// NewPlacedOrder maps the rows written by an atomic order create. Names are
// not loaded there, so they are left out.
func NewPlacedOrder(header *entity.OrderHeader, lines []*entity.OrderLine) OrderDetail {
	detail := OrderDetail{
		Order: Order{
			ID:       header.ID,
			ClientID: header.ClientID,
			Date:     header.CreatedAt,
			Total:    Money(header.Total),
			Status:   header.Status,
		},
		Lines: make([]OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		detail.Lines = append(detail.Lines, OrderLine{
			ID:        l.ID,
			OrderID:   l.OrderID,
			ProductID: l.ProductID,
			Price:     Money(l.Price),
			Quantity:  l.Quantity,
			Subtotal:  Money(l.Subtotal),
		})
	}
	return detail
}

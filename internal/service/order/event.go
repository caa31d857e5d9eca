package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types published on the order topic.
const (
	EventOrderCreated   = "order.created"
	EventOrderLineAdded = "order.line_added"
)

// Event is emitted after an order header or line is persisted.
type Event struct {
	Type       string          `json:"type"`
	OrderID    int64           `json:"orderId"`
	ClientID   int64           `json:"clientId,omitempty"`
	LineID     int64           `json:"lineId,omitempty"`
	ProductID  int64           `json:"productId,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Lines      int             `json:"lines,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

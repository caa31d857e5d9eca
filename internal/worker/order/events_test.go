package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/ventas/internal/messaging"
	ordersvc "github.com/Additional-Code/ventas/internal/service/order"
)

func newObservedHandlers(t *testing.T) (*Handlers, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	h, err := NewHandlers(zap.New(core))
	require.NoError(t, err)
	return h, logs
}

func encode(t *testing.T, event ordersvc.Event) messaging.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return messaging.Message{
		Topic:   "ventas.orders",
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: event.Type},
	}
}

func TestOrderCreatedHandler(t *testing.T) {
	h, logs := newObservedHandlers(t)
	reg := h.OrderCreated()
	assert.Equal(t, ordersvc.EventOrderCreated, reg.EventType)

	msg := encode(t, ordersvc.Event{
		Type:       ordersvc.EventOrderCreated,
		OrderID:    3,
		ClientID:   1,
		Total:      decimal.RequireFromString("27.5"),
		OccurredAt: time.Now(),
	})
	require.NoError(t, reg.Handler(context.Background(), msg))

	entries := logs.FilterMessage("order created").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["order_id"])
	assert.Equal(t, "27.50", fields["total"])
}

func TestLineAddedHandler(t *testing.T) {
	h, logs := newObservedHandlers(t)
	reg := h.LineAdded()
	assert.Equal(t, ordersvc.EventOrderLineAdded, reg.EventType)

	msg := encode(t, ordersvc.Event{Type: ordersvc.EventOrderLineAdded, OrderID: 3, LineID: 9, ProductID: 4, Subtotal: decimal.NewFromInt(100)})
	require.NoError(t, reg.Handler(context.Background(), msg))

	entries := logs.FilterMessage("order line added").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(9), entries[0].ContextMap()["line_id"])
}

func TestHandler_RejectsMalformedPayload(t *testing.T) {
	h, logs := newObservedHandlers(t)

	msg := messaging.Message{Value: []byte("{not json"), Headers: map[string]string{messaging.HeaderEventType: ordersvc.EventOrderCreated}}
	err := h.OrderCreated().Handler(context.Background(), msg)
	assert.ErrorContains(t, err, "decode order.created")
	assert.Equal(t, 1, logs.FilterMessage("failed to decode order event").Len())
}

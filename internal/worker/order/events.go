package order

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/messaging"
	ordersvc "github.com/Additional-Code/ventas/internal/service/order"
	"github.com/Additional-Code/ventas/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/ventas/worker/order")

// Module registers the order event handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		NewHandlers,
		fx.Annotate(
			(*Handlers).OrderCreated,
			fx.ResultTags(`group:"worker.handlers"`),
		),
		fx.Annotate(
			(*Handlers).LineAdded,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// Handlers consumes order events. For now it records them in logs and
// metrics only.
type Handlers struct {
	logger    *zap.Logger
	processed metric.Int64Counter
}

// NewHandlers builds the order event handlers.
func NewHandlers(logger *zap.Logger) (*Handlers, error) {
	meter := otel.Meter("github.com/Additional-Code/ventas/worker/order")
	processed, err := meter.Int64Counter("order_events_processed", metric.WithDescription("Order events handled by the worker"))
	if err != nil {
		return nil, fmt.Errorf("create order_events_processed counter: %w", err)
	}
	return &Handlers{logger: logger.Named("order_events"), processed: processed}, nil
}

// OrderCreated registers the order.created handler.
func (h *Handlers) OrderCreated() worker.HandlerRegistration {
	return worker.HandlerRegistration{
		EventType: ordersvc.EventOrderCreated,
		Handler: h.handle(func(event ordersvc.Event) {
			h.logger.Info("order created",
				zap.Int64("order_id", event.OrderID),
				zap.Int64("client_id", event.ClientID),
				zap.String("total", event.Total.StringFixed(2)),
				zap.Int("lines", event.Lines),
			)
		}),
	}
}

// LineAdded registers the order.line_added handler.
func (h *Handlers) LineAdded() worker.HandlerRegistration {
	return worker.HandlerRegistration{
		EventType: ordersvc.EventOrderLineAdded,
		Handler: h.handle(func(event ordersvc.Event) {
			h.logger.Info("order line added",
				zap.Int64("order_id", event.OrderID),
				zap.Int64("line_id", event.LineID),
				zap.Int64("product_id", event.ProductID),
				zap.String("subtotal", event.Subtotal.StringFixed(2)),
			)
		}),
	}
}

func (h *Handlers) handle(process func(ordersvc.Event)) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("event.type", msg.EventType()),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			h.logger.Error("failed to decode order event", zap.String("event_type", msg.EventType()), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return fmt.Errorf("decode %s: %w", msg.EventType(), err)
		}

		process(event)
		h.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("type", event.Type)))
		return nil
	}
}

package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/config"
	"github.com/Additional-Code/ventas/internal/entity"
	"github.com/Additional-Code/ventas/internal/messaging"
	repo "github.com/Additional-Code/ventas/internal/repository/order"
	"github.com/Additional-Code/ventas/internal/service/storeerr"
	"github.com/Additional-Code/ventas/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/ventas/service/order")

// Service runs the order workflow. It never caches orders; every read goes
// to the store.
type Service struct {
	repo          *repo.Repository
	logger        *zap.Logger
	publisher     messaging.Client
	messaging     messagingConfig
	ordersCreated metric.Int64Counter
	now           func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	meter := otel.Meter("github.com/Additional-Code/ventas/service/order")
	counter, err := meter.Int64Counter("orders_created", metric.WithDescription("Total number of created order headers"))
	if err != nil {
		return nil, fmt.Errorf("create orders_created counter: %w", err)
	}

	return &Service{
		repo:          p.Repository,
		logger:        p.Logger,
		publisher:     p.Publisher,
		messaging:     messagingConfig{enabled: p.Config.Messaging.Enabled},
		ordersCreated: counter,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// HeaderInput carries the fields of a standalone order header.
type HeaderInput struct {
	ClientID int64
	Total    decimal.Decimal
	Status   string
}

// LineInput carries the fields of a standalone order line.
type LineInput struct {
	OrderID   int64
	ProductID int64
	Price     decimal.Decimal
	Quantity  int64
}

// OrderInput describes a complete order created in one transaction.
type OrderInput struct {
	ClientID int64
	Status   string
	Lines    []LineItem
}

// LineItem is one line of an OrderInput.
type LineItem struct {
	ProductID int64
	Price     decimal.Decimal
	Quantity  int64
}

// CreatedOrder is the result of CreateOrder.
type CreatedOrder struct {
	Header *entity.OrderHeader
	Lines  []*entity.OrderLine
}

// CreateHeader inserts a header on its own. The total is taken as given and
// is not reconciled with lines added later. A client id the schema does not
// know is reported as not found.
func (s *Service) CreateHeader(ctx context.Context, in HeaderInput) (*entity.OrderHeader, error) {
	if in.ClientID <= 0 {
		return nil, errorbank.BadRequest("clientId must be positive", errorbank.WithDetail("field", "clientId"))
	}
	if err := validateAmount("total", in.Total, entity.MaxAmount); err != nil {
		return nil, err
	}
	status, err := parseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.CreateHeader", trace.WithAttributes(attribute.Int64("client.id", in.ClientID)))
	defer span.End()

	header := &entity.OrderHeader{
		ClientID:  in.ClientID,
		CreatedAt: s.now(),
		Total:     in.Total,
		Status:    status,
	}
	if err := s.repo.CreateHeader(ctx, header); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{
			MissingReference: "client not found",
			Failed:           "failed to create order header",
		})
	}

	s.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", "header")))
	s.publish(ctx, Event{
		Type:       EventOrderCreated,
		OrderID:    header.ID,
		ClientID:   header.ClientID,
		Total:      header.Total,
		OccurredAt: header.CreatedAt,
	})
	return header, nil
}

// CreateLine inserts a line on its own with subtotal = price * quantity. The
// price is not checked against the product's price band and the header
// total is left untouched.
func (s *Service) CreateLine(ctx context.Context, in LineInput) (*entity.OrderLine, error) {
	if in.OrderID <= 0 {
		return nil, errorbank.BadRequest("orderId must be positive", errorbank.WithDetail("field", "orderId"))
	}
	if err := validateLine(LineItem{ProductID: in.ProductID, Price: in.Price, Quantity: in.Quantity}); err != nil {
		return nil, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.CreateLine", trace.WithAttributes(
		attribute.Int64("order.id", in.OrderID),
		attribute.Int64("product.id", in.ProductID),
	))
	defer span.End()

	line := &entity.OrderLine{
		OrderID:   in.OrderID,
		ProductID: in.ProductID,
		Price:     in.Price,
		Quantity:  in.Quantity,
	}
	line.ComputeSubtotal()

	if err := s.repo.CreateLine(ctx, line); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{
			MissingReference: "order or product not found",
			Failed:           "failed to create order line",
		})
	}

	s.publish(ctx, Event{
		Type:       EventOrderLineAdded,
		OrderID:    line.OrderID,
		LineID:     line.ID,
		ProductID:  line.ProductID,
		Subtotal:   line.Subtotal,
		OccurredAt: s.now(),
	})
	return line, nil
}

// CreateOrder inserts a header and all its lines atomically. The header
// total is the sum of the line subtotals.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*CreatedOrder, error) {
	if in.ClientID <= 0 {
		return nil, errorbank.BadRequest("clientId must be positive", errorbank.WithDetail("field", "clientId"))
	}
	if len(in.Lines) == 0 {
		return nil, errorbank.BadRequest("an order needs at least one line", errorbank.WithDetail("field", "lines"))
	}
	status, err := parseStatus(in.Status)
	if err != nil {
		return nil, err
	}

	lines := make([]*entity.OrderLine, 0, len(in.Lines))
	total := decimal.Zero
	for i, item := range in.Lines {
		if err := validateLine(item); err != nil {
			return nil, errorbank.BadRequest(fmt.Sprintf("lines[%d]: %s", i, errorbank.From(err).Message()), errorbank.WithDetail("line", i))
		}
		line := &entity.OrderLine{ProductID: item.ProductID, Price: item.Price, Quantity: item.Quantity}
		line.ComputeSubtotal()
		total = total.Add(line.Subtotal)
		lines = append(lines, line)
	}
	if total.GreaterThan(entity.MaxAmount) {
		return nil, errorbank.BadRequest("order total must not exceed "+entity.MaxAmount.StringFixed(2),
			errorbank.WithDetail("field", "total"),
			errorbank.WithDetail("total", total.String()),
		)
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.Int64("client.id", in.ClientID),
		attribute.Int("order.lines", len(lines)),
	))
	defer span.End()

	header := &entity.OrderHeader{
		ClientID:  in.ClientID,
		CreatedAt: s.now(),
		Total:     total,
		Status:    status,
	}
	if err := s.repo.CreateWithLines(ctx, header, lines); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{
			MissingReference: "client or product not found",
			Failed:           "failed to create order",
		})
	}

	s.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", "atomic")))
	s.publish(ctx, Event{
		Type:       EventOrderCreated,
		OrderID:    header.ID,
		ClientID:   header.ClientID,
		Total:      header.Total,
		Lines:      len(lines),
		OccurredAt: header.CreatedAt,
	})
	return &CreatedOrder{Header: header, Lines: lines}, nil
}

// List returns every order header with its client name, regardless of the
// client's status.
func (s *Service) List(ctx context.Context) ([]entity.OrderSummary, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	orders, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{Failed: "failed to list orders"})
	}
	return orders, nil
}

// ListLines returns every order line with its product name, regardless of
// the product's status.
func (s *Service) ListLines(ctx context.Context) ([]entity.OrderLineSummary, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListLines")
	defer span.End()

	lines, err := s.repo.ListLines(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{Failed: "failed to list order lines"})
	}
	return lines, nil
}

// Get returns one order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	if id <= 0 {
		return nil, errorbank.BadRequest("invalid order id")
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeerr.Translate(err, storeerr.Messages{
			NotFound: "order not found",
			Failed:   "failed to load order",
		})
	}
	return order, nil
}

func (s *Service) publish(ctx context.Context, event Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.String("type", event.Type), zap.Error(err))
		}
		return
	}
	msg := messaging.Message{
		Key:     []byte(fmt.Sprintf("order-%d", event.OrderID)),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: event.Type},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event", zap.String("type", event.Type), zap.Int64("order_id", event.OrderID), zap.Error(err))
		}
	}
}

func validateLine(item LineItem) error {
	if item.ProductID <= 0 {
		return errorbank.BadRequest("productId must be positive", errorbank.WithDetail("field", "productId"))
	}
	if err := validateAmount("price", item.Price, entity.MaxPrice); err != nil {
		return err
	}
	switch {
	case item.Quantity < 0:
		return errorbank.BadRequest("quantity must not be negative", errorbank.WithDetail("field", "quantity"))
	case item.Quantity > entity.MaxQuantity:
		return errorbank.BadRequest(fmt.Sprintf("quantity must not exceed %d", entity.MaxQuantity), errorbank.WithDetail("field", "quantity"))
	}
	if subtotal := item.Price.Mul(decimal.NewFromInt(item.Quantity)); subtotal.GreaterThan(entity.MaxAmount) {
		return errorbank.BadRequest("subtotal must not exceed "+entity.MaxAmount.StringFixed(2),
			errorbank.WithDetail("field", "subtotal"),
			errorbank.WithDetail("subtotal", subtotal.String()),
		)
	}
	return nil
}

func validateAmount(field string, amount, limit decimal.Decimal) error {
	if amount.IsNegative() {
		return errorbank.BadRequest(field+" must not be negative", errorbank.WithDetail("field", field))
	}
	if amount.GreaterThan(limit) {
		return errorbank.BadRequest(field+" must not exceed "+limit.StringFixed(2), errorbank.WithDetail("field", field))
	}
	if !amount.Equal(amount.Round(2)) {
		return errorbank.BadRequest(field+" allows at most two decimals", errorbank.WithDetail("field", field))
	}
	return nil
}

func parseStatus(raw string) (entity.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return entity.StatusActive, nil
	}
	status, err := entity.ParseStatus(raw)
	if err != nil {
		return "", errorbank.BadRequest("status must be A or I", errorbank.WithCause(err), errorbank.WithDetail("field", "status"))
	}
	return status, nil
}

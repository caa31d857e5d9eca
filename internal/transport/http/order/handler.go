package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/ventas/internal/dto"
	"github.com/Additional-Code/ventas/internal/presentation/http/request"
	"github.com/Additional-Code/ventas/internal/presentation/http/response"
	service "github.com/Additional-Code/ventas/internal/service/order"
	"github.com/Additional-Code/ventas/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/ventas/transport/http/order")

// Handler exposes order endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. /pedido_enc and /pedido_det
// keep the two-step flow; POST /pedidos creates a whole order at once.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/pedidos", h.list)
	e.POST("/pedidos", h.create)
	e.GET("/pedidos/:id", h.getByID)

	e.POST("/pedido_enc", h.createHeader)

	e.GET("/detalles", h.listLines)
	e.POST("/pedido_det", h.createLine)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "pedidos.list")
	defer span.End()

	orders, err := h.svc.List(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrders(orders)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "pedidos.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderDetail(order)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateOrderRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	in := service.OrderInput{
		ClientID: *req.ClientID,
		Status:   req.Status,
		Lines:    make([]service.LineItem, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		in.Lines = append(in.Lines, service.LineItem{
			ProductID: *line.ProductID,
			Price:     *line.Price,
			Quantity:  *line.Quantity,
		})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "pedidos.create", trace.WithAttributes(
		attribute.Int64("client.id", in.ClientID),
	))
	defer span.End()

	created, err := h.svc.CreateOrder(ctx, in)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.NewPlacedOrder(created.Header, created.Lines)).Build()
}

func (h *Handler) createHeader(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateOrderHeaderRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "pedido_enc.create", trace.WithAttributes(
		attribute.Int64("client.id", *req.ClientID),
	))
	defer span.End()

	header, err := h.svc.CreateHeader(ctx, service.HeaderInput{
		ClientID: *req.ClientID,
		Total:    *req.Total,
		Status:   req.Status,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.OrderCreated{ID: header.ID}).Build()
}

func (h *Handler) listLines(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "detalles.list")
	defer span.End()

	lines, err := h.svc.ListLines(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderLines(lines)).Build()
}

func (h *Handler) createLine(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateOrderLineRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "pedido_det.create", trace.WithAttributes(
		attribute.Int64("order.id", *req.OrderID),
		attribute.Int64("product.id", *req.ProductID),
	))
	defer span.End()

	line, err := h.svc.CreateLine(ctx, service.LineInput{
		OrderID:   *req.OrderID,
		ProductID: *req.ProductID,
		Price:     *req.Price,
		Quantity:  *req.Quantity,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.OrderLineCreated{ID: line.ID}).Build()
}

package catalog

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
	service "github.com/Additional-Code/ventas/internal/service/catalog"
	"github.com/Additional-Code/ventas/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/ventas/transport/http/catalog")

// Handler exposes products and clients over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a catalog Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/productos", h.listProducts)
	e.POST("/productos", h.createProduct)
	e.DELETE("/productos/:id", h.deactivateProduct)

	e.GET("/clientes", h.listClients)
	e.POST("/clientes", h.createClient)
	e.DELETE("/clientes/:id", h.deactivateClient)
}

func (h *Handler) listProducts(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "productos.list")
	defer span.End()

	products, err := h.svc.ListActiveProducts(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewProducts(products)).Build()
}

func (h *Handler) createProduct(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateProductRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "productos.create")
	defer span.End()

	product, err := h.svc.CreateProduct(ctx, service.ProductInput{
		Name:         req.Name,
		MinPrice:     *req.MinPrice,
		MaxPrice:     *req.MaxPrice,
		AvailableQty: *req.AvailableQty,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int64("product.id", product.ID))

	return b.WithStatus(http.StatusCreated).WithData(dto.ProductCreated{ID: product.ID}).Build()
}

func (h *Handler) deactivateProduct(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "productos.deactivate", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := h.svc.DeactivateProduct(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) listClients(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "clientes.list")
	defer span.End()

	clients, err := h.svc.ListActiveClients(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewClients(clients)).Build()
}

func (h *Handler) createClient(c echo.Context) error {
	b := response.New(c)

	var req dto.CreateClientRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "clientes.create")
	defer span.End()

	client, err := h.svc.CreateClient(ctx, service.ClientInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		TaxID: req.TaxID,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int64("client.id", client.ID))

	return b.WithStatus(http.StatusCreated).WithData(dto.ClientCreated{ID: client.ID}).Build()
}

func (h *Handler) deactivateClient(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "clientes.deactivate", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	if err := h.svc.DeactivateClient(ctx, id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithDetail("id", c.Param("id")))
	}
	return id, nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/cache"
	"github.com/Additional-Code/ventas/internal/config"
	"github.com/Additional-Code/ventas/internal/entity"
	repo "github.com/Additional-Code/ventas/internal/repository/catalog"
	"github.com/Additional-Code/ventas/internal/service/storeerr"
	"github.com/Additional-Code/ventas/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/ventas/service/catalog")

const (
	productsKey = "catalog:products:active"
	clientsKey  = "catalog:clients:active"
	genSuffix   = ":gen"
)

// Service manages products and clients. Active listings are served
// cache-aside under a generation that every write advances.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.CatalogTTL,
		logger:   p.Logger,
	}
}

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Name         string
	MinPrice     decimal.Decimal
	MaxPrice     decimal.Decimal
	AvailableQty int64
}

// ClientInput carries the fields of a new client.
type ClientInput struct {
	Name  string
	Email string
	Phone string
	TaxID string
}

// ListActiveProducts returns every active product.
func (s *Service) ListActiveProducts(ctx context.Context) ([]entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListActiveProducts")
	defer span.End()

	key, cacheable := s.listingKey(ctx, productsKey)
	if cacheable {
		if products, ok := cached[[]entity.Product](ctx, s, key); ok {
			return products, nil
		}
	}

	products, err := s.repo.ListActiveProducts(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{Failed: "failed to list products"})
	}

	if cacheable {
		s.writeCache(ctx, key, products)
	}
	return products, nil
}

// CreateProduct validates and stores a new active product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*entity.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateProduct", trace.WithAttributes(attribute.String("product.name", in.Name)))
	defer span.End()

	product := &entity.Product{
		Name:         strings.TrimSpace(in.Name),
		MinPrice:     in.MinPrice,
		MaxPrice:     in.MaxPrice,
		AvailableQty: in.AvailableQty,
		Status:       entity.StatusActive,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{
			Duplicate: "product already exists",
			Failed:    "failed to create product",
		})
	}

	s.invalidate(ctx, productsKey)
	return product, nil
}

// DeactivateProduct soft-deletes a product.
func (s *Service) DeactivateProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return errorbank.BadRequest("invalid product id")
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.DeactivateProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := s.repo.DeactivateProduct(ctx, id); err != nil {
		return storeerr.Translate(err, storeerr.Messages{
			NotFound: "product not found",
			Failed:   "failed to deactivate product",
		})
	}

	s.invalidate(ctx, productsKey)
	return nil
}

// ListActiveClients returns every active client.
func (s *Service) ListActiveClients(ctx context.Context) ([]entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListActiveClients")
	defer span.End()

	key, cacheable := s.listingKey(ctx, clientsKey)
	if cacheable {
		if clients, ok := cached[[]entity.Client](ctx, s, key); ok {
			return clients, nil
		}
	}

	clients, err := s.repo.ListActiveClients(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{Failed: "failed to list clients"})
	}

	if cacheable {
		s.writeCache(ctx, key, clients)
	}
	return clients, nil
}

// CreateClient validates and stores a new active client. Uniqueness of the
// tax id is left to the schema and reported as a conflict.
func (s *Service) CreateClient(ctx context.Context, in ClientInput) (*entity.Client, error) {
	client := &entity.Client{
		Name:   strings.TrimSpace(in.Name),
		Email:  strings.TrimSpace(in.Email),
		Phone:  strings.TrimSpace(in.Phone),
		TaxID:  strings.TrimSpace(in.TaxID),
		Status: entity.StatusActive,
	}
	if client.Name == "" {
		return nil, errorbank.BadRequest("name is required", errorbank.WithDetail("field", "name"))
	}
	if client.TaxID == "" {
		return nil, errorbank.BadRequest("taxId is required", errorbank.WithDetail("field", "taxId"))
	}

	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateClient", trace.WithAttributes(attribute.String("client.tax_id", client.TaxID)))
	defer span.End()

	if err := s.repo.CreateClient(ctx, client); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, storeerr.Translate(err, storeerr.Messages{
			Duplicate: "client already exists",
			Failed:    "failed to create client",
		})
	}

	s.invalidate(ctx, clientsKey)
	return client, nil
}

// DeactivateClient soft-deletes a client. Existing orders keep referencing it.
func (s *Service) DeactivateClient(ctx context.Context, id int64) error {
	if id <= 0 {
		return errorbank.BadRequest("invalid client id")
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.DeactivateClient", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	if err := s.repo.DeactivateClient(ctx, id); err != nil {
		return storeerr.Translate(err, storeerr.Messages{
			NotFound: "client not found",
			Failed:   "failed to deactivate client",
		})
	}

	s.invalidate(ctx, clientsKey)
	return nil
}

func validateProduct(in ProductInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return errorbank.BadRequest("name is required", errorbank.WithDetail("field", "name"))
	case in.MinPrice.IsNegative():
		return errorbank.BadRequest("minPrice must not be negative", errorbank.WithDetail("field", "minPrice"))
	case in.MaxPrice.IsNegative():
		return errorbank.BadRequest("maxPrice must not be negative", errorbank.WithDetail("field", "maxPrice"))
	case !hasCents(in.MinPrice):
		return errorbank.BadRequest("minPrice allows at most two decimals", errorbank.WithDetail("field", "minPrice"))
	case !hasCents(in.MaxPrice):
		return errorbank.BadRequest("maxPrice allows at most two decimals", errorbank.WithDetail("field", "maxPrice"))
	case in.MaxPrice.GreaterThan(entity.MaxPrice):
		return errorbank.BadRequest("maxPrice must not exceed "+entity.MaxPrice.StringFixed(2), errorbank.WithDetail("field", "maxPrice"))
	case in.MinPrice.GreaterThan(in.MaxPrice):
		return errorbank.BadRequest("minPrice must not exceed maxPrice",
			errorbank.WithDetail("minPrice", in.MinPrice.String()),
			errorbank.WithDetail("maxPrice", in.MaxPrice.String()),
		)
	case in.AvailableQty < 0:
		return errorbank.BadRequest("availableQty must not be negative", errorbank.WithDetail("field", "availableQty"))
	case in.AvailableQty > entity.MaxQuantity:
		return errorbank.BadRequest(fmt.Sprintf("availableQty must not exceed %d", entity.MaxQuantity), errorbank.WithDetail("field", "availableQty"))
	}
	return nil
}

func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// cached returns the listing stored under key. Read failures other than a
// miss are logged and treated as a miss.
func cached[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var zero T
	if s.cache == nil {
		return zero, false
	}
	value, err := cache.GetJSON[T](ctx, s.cache, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}
	return value, true
}

func (s *Service) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// listingKey returns the cache key for the current generation of a listing.
// Writes bump the generation, so a listing read before a write can only ever
// populate a key that is no longer consulted.
func (s *Service) listingKey(ctx context.Context, listing string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := cache.Generation(ctx, s.cache, listing+genSuffix)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("catalog cache generation read failed", zap.String("listing", listing), zap.Error(err))
		}
		return "", false
	}
	return fmt.Sprintf("%s:v%d", listing, gen), true
}

func (s *Service) invalidate(ctx context.Context, listing string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, listing+genSuffix); err != nil && s.logger != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.String("listing", listing), zap.Error(err))
	}
}

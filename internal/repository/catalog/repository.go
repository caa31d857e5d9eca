package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/ventas/internal/database"
	"github.com/Additional-Code/ventas/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/ventas/repository/catalog")

// Repository stores products and clients. It applies no business rules
// beyond what the schema enforces.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// ListActiveProducts returns active products ordered by id.
func (r *Repository) ListActiveProducts(ctx context.Context) ([]entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ListActiveProducts")
	defer span.End()

	var products []entity.Product
	err := r.reader.NewSelect().
		Model(&products).
		Where("pr.estado = ?", entity.StatusActive).
		OrderExpr("pr.id_producto ASC").
		Scan(ctx)
	if err != nil {
		return nil, fail(span, "select products", err)
	}
	return products, nil
}

// CreateProduct inserts a product and sets its generated id.
func (r *Repository) CreateProduct(ctx context.Context, product *entity.Product) error {
	if product == nil {
		return errors.New("nil product")
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateProduct", trace.WithAttributes(attribute.String("product.name", product.Name)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(product).Exec(ctx); err != nil {
		return fail(span, "insert product", err)
	}
	return nil
}

// DeactivateProduct flips a product to inactive. It returns
// database.ErrNotFound when no product has the id.
func (r *Repository) DeactivateProduct(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.DeactivateProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	return r.deactivate(ctx, span, (*entity.Product)(nil), "id_producto", id)
}

// ListActiveClients returns active clients ordered by id.
func (r *Repository) ListActiveClients(ctx context.Context) ([]entity.Client, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ListActiveClients")
	defer span.End()

	var clients []entity.Client
	err := r.reader.NewSelect().
		Model(&clients).
		Where("c.estado = ?", entity.StatusActive).
		OrderExpr("c.id_cliente ASC").
		Scan(ctx)
	if err != nil {
		return nil, fail(span, "select clients", err)
	}
	return clients, nil
}

// CreateClient inserts a client and sets its generated id.
func (r *Repository) CreateClient(ctx context.Context, client *entity.Client) error {
	if client == nil {
		return errors.New("nil client")
	}
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateClient", trace.WithAttributes(attribute.String("client.tax_id", client.TaxID)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(client).Exec(ctx); err != nil {
		return fail(span, "insert client", err)
	}
	return nil
}

// DeactivateClient flips a client to inactive. It returns
// database.ErrNotFound when no client has the id.
func (r *Repository) DeactivateClient(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.DeactivateClient", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	return r.deactivate(ctx, span, (*entity.Client)(nil), "id_cliente", id)
}

func (r *Repository) deactivate(ctx context.Context, span trace.Span, model any, idColumn string, id int64) error {
	res, err := r.writer.NewUpdate().
		Model(model).
		Set("estado = ?", entity.StatusInactive).
		Where("? = ?", bun.Ident(idColumn), id).
		Exec(ctx)
	if err != nil {
		return fail(span, "deactivate", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fail(span, "deactivate", err)
	}
	if affected > 0 {
		return nil
	}

	// MySQL reports zero affected rows when the row was already inactive.
	exists, err := r.writer.NewSelect().
		Model(model).
		Where("? = ?", bun.Ident(idColumn), id).
		Exists(ctx)
	if err != nil {
		return fail(span, "deactivate", err)
	}
	if !exists {
		span.SetStatus(codes.Error, "not found")
		return database.ErrNotFound
	}
	return nil
}

func fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	return fmt.Errorf("%s: %w", op, database.Classify(err))
}

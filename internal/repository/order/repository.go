package order

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

var repoTracer = otel.Tracer("github.com/Additional-Code/ventas/repository/order")

// Repository encapsulates read/write access for order headers and lines.
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

// CreateHeader inserts a single order header. The client reference is
// checked by the schema only.
func (r *Repository) CreateHeader(ctx context.Context, header *entity.OrderHeader) error {
	if header == nil {
		return errors.New("nil order header")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CreateHeader", trace.WithAttributes(attribute.Int64("client.id", header.ClientID)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(header).Exec(ctx); err != nil {
		return fail(span, "insert order header", err)
	}
	return nil
}

// CreateLine inserts a single order line.
func (r *Repository) CreateLine(ctx context.Context, line *entity.OrderLine) error {
	if line == nil {
		return errors.New("nil order line")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CreateLine", trace.WithAttributes(
		attribute.Int64("order.id", line.OrderID),
		attribute.Int64("product.id", line.ProductID),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(line).Exec(ctx); err != nil {
		return fail(span, "insert order line", err)
	}
	return nil
}

// CreateWithLines inserts the header and every line in one transaction.
// Line order ids are set from the new header.
func (r *Repository) CreateWithLines(ctx context.Context, header *entity.OrderHeader, lines []*entity.OrderLine) error {
	if header == nil {
		return errors.New("nil order header")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.CreateWithLines", trace.WithAttributes(
		attribute.Int64("client.id", header.ClientID),
		attribute.Int("order.lines", len(lines)),
	))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(header).Exec(ctx); err != nil {
			return fmt.Errorf("insert order header: %w", err)
		}
		for _, line := range lines {
			line.OrderID = header.ID
			if _, err := tx.NewInsert().Model(line).Exec(ctx); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fail(span, "create order", err)
	}
	return nil
}

// List returns one row per order header joined with the client name.
func (r *Repository) List(ctx context.Context) ([]entity.OrderSummary, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var rows []entity.OrderSummary
	if err := r.selectHeaders().OrderExpr("o.id_pedido ASC").Scan(ctx, &rows); err != nil {
		return nil, fail(span, "select orders", err)
	}
	return rows, nil
}

// ListLines returns every order line joined with the product name.
func (r *Repository) ListLines(ctx context.Context) ([]entity.OrderLineSummary, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.ListLines")
	defer span.End()

	var rows []entity.OrderLineSummary
	if err := r.selectLines().OrderExpr("d.id_detalle ASC").Scan(ctx, &rows); err != nil {
		return nil, fail(span, "select order lines", err)
	}
	return rows, nil
}

// GetByID fetches a header and its lines. It returns database.ErrNotFound
// when the header is missing.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order := new(entity.Order)
	err := r.selectHeaders().Where("o.id_pedido = ?", id).Limit(1).Scan(ctx, &order.Header)
	if err != nil {
		return nil, fail(span, "select order", err)
	}

	err = r.selectLines().
		Where("d.id_pedido = ?", id).
		OrderExpr("d.id_detalle ASC").
		Scan(ctx, &order.Lines)
	if err != nil {
		return nil, fail(span, "select order lines", err)
	}
	return order, nil
}

func (r *Repository) selectHeaders() *bun.SelectQuery {
	return r.reader.NewSelect().
		TableExpr("pedido_enc AS o").
		ColumnExpr("o.id_pedido, o.id_cliente, c.nombre AS nombre_cliente, o.fecha, o.total_pedido, o.estado").
		Join("JOIN clientes AS c ON c.id_cliente = o.id_cliente")
}

func (r *Repository) selectLines() *bun.SelectQuery {
	return r.reader.NewSelect().
		TableExpr("pedido_det AS d").
		ColumnExpr("d.id_detalle, d.id_pedido, d.id_producto, pr.nombre AS nombre_producto, d.precio_venta, d.cantidad_venta, d.subtotal_venta").
		Join("JOIN productos AS pr ON pr.id_producto = d.id_producto")
}

func fail(span trace.Span, op string, err error) error {
	classified := database.Classify(err)
	if errors.Is(classified, database.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
	}
	return fmt.Errorf("%s: %w", op, classified)
}

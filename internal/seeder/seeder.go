package seeder

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/database"
	"github.com/Additional-Code/ventas/internal/entity"
)

// Seeder loads sample catalog data for local setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the writer pool.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Catalog inserts sample clients and products. Clients are matched by tax
// id and products by name, so running it twice adds nothing.
func (s *Seeder) Catalog(ctx context.Context) error {
	clients := []entity.Client{
		{Name: "Ana López", Email: "ana@example.com", Phone: "5550-1001", TaxID: "1234567-8"},
		{Name: "Carlos Méndez", Email: "carlos@example.com", Phone: "5550-1002", TaxID: "7654321-0"},
		{Name: "Consumidor Final", TaxID: "CF"},
	}
	products := []entity.Product{
		{Name: "Café molido 500g", MinPrice: money("35.00"), MaxPrice: money("42.50"), AvailableQty: 120},
		{Name: "Azúcar 1kg", MinPrice: money("9.75"), MaxPrice: money("11.00"), AvailableQty: 300},
		{Name: "Taza de cerámica", MinPrice: money("25.00"), MaxPrice: money("30.00"), AvailableQty: 40},
	}

	var addedClients, addedProducts int
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := range clients {
			c := &clients[i]
			exists, err := tx.NewSelect().Model((*entity.Client)(nil)).Where("nit = ?", c.TaxID).Exists(ctx)
			if err != nil {
				return fmt.Errorf("look up client %s: %w", c.TaxID, err)
			}
			if exists {
				continue
			}
			c.Status = entity.StatusActive
			if _, err := tx.NewInsert().Model(c).Exec(ctx); err != nil {
				return fmt.Errorf("insert client %s: %w", c.TaxID, err)
			}
			addedClients++
		}

		for i := range products {
			p := &products[i]
			exists, err := tx.NewSelect().Model((*entity.Product)(nil)).Where("nombre = ?", p.Name).Exists(ctx)
			if err != nil {
				return fmt.Errorf("look up product %s: %w", p.Name, err)
			}
			if exists {
				continue
			}
			p.Status = entity.StatusActive
			if _, err := tx.NewInsert().Model(p).Exec(ctx); err != nil {
				return fmt.Errorf("insert product %s: %w", p.Name, err)
			}
			addedProducts++
		}
		return nil
	})
	if err != nil {
		return database.Classify(err)
	}

	s.logger.Info("seeded catalog", zap.Int("clients", addedClients), zap.Int("products", addedProducts))
	return nil
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/database/dbtest"
	"github.com/Additional-Code/ventas/internal/entity"
)

func TestCatalog_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	conns := dbtest.Open(t)
	s := New(conns, zap.NewNop())

	require.NoError(t, s.Catalog(ctx))
	require.NoError(t, s.Catalog(ctx))

	clients, err := conns.Reader.NewSelect().Model((*entity.Client)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, clients)

	var products []entity.Product
	require.NoError(t, conns.Reader.NewSelect().Model(&products).Order("id_producto").Scan(ctx))
	require.Len(t, products, 3)
	assert.Equal(t, "Café molido 500g", products[0].Name)
	assert.Equal(t, entity.StatusActive, products[0].Status)
	assert.True(t, products[1].MinPrice.LessThan(products[1].MaxPrice))
}

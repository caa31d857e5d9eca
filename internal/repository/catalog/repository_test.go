package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/ventas/internal/database"
	"github.com/Additional-Code/ventas/internal/database/dbtest"
	"github.com/Additional-Code/ventas/internal/entity"
)

func newProduct(name string) *entity.Product {
	return &entity.Product{
		Name:         name,
		MinPrice:     decimal.RequireFromString("10.50"),
		MaxPrice:     decimal.RequireFromString("12.00"),
		AvailableQty: 5,
		Status:       entity.StatusActive,
	}
}

func TestRepository_Products(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	products, err := repo.ListActiveProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	coffee := newProduct("Coffee")
	tea := newProduct("Tea")
	require.NoError(t, repo.CreateProduct(ctx, coffee))
	require.NoError(t, repo.CreateProduct(ctx, tea))
	assert.NotZero(t, coffee.ID)
	assert.Greater(t, tea.ID, coffee.ID)

	products, err = repo.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Coffee", products[0].Name)
	assert.True(t, decimal.RequireFromString("10.5").Equal(products[0].MinPrice))
	assert.True(t, decimal.RequireFromString("12").Equal(products[0].MaxPrice))
	assert.Equal(t, int64(5), products[0].AvailableQty)

	require.NoError(t, repo.DeactivateProduct(ctx, coffee.ID))
	// already inactive is not an error
	require.NoError(t, repo.DeactivateProduct(ctx, coffee.ID))

	products, err = repo.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, tea.ID, products[0].ID)

	err = repo.DeactivateProduct(ctx, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_CreateProduct_StoresUnvalidatedInput(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	inverted := newProduct("Inverted band")
	inverted.MinPrice, inverted.MaxPrice = inverted.MaxPrice, inverted.MinPrice
	inverted.AvailableQty = -3

	require.NoError(t, repo.CreateProduct(ctx, inverted))
	products, err := repo.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(-3), products[0].AvailableQty)
}

func TestRepository_Clients(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	ana := &entity.Client{Name: "Ana", Email: "a@x.com", Phone: "555", TaxID: "T1", Status: entity.StatusActive}
	require.NoError(t, repo.CreateClient(ctx, ana))
	assert.Equal(t, int64(1), ana.ID)

	dup := &entity.Client{Name: "Ana again", Email: "b@x.com", Phone: "556", TaxID: "T1", Status: entity.StatusActive}
	err := repo.CreateClient(ctx, dup)
	assert.ErrorIs(t, err, database.ErrDuplicate)

	inactive := &entity.Client{Name: "Old", Email: "o@x.com", Phone: "1", TaxID: "T2", Status: entity.StatusInactive}
	require.NoError(t, repo.CreateClient(ctx, inactive))

	clients, err := repo.ListActiveClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Ana", clients[0].Name)
	assert.Equal(t, "a@x.com", clients[0].Email)
	assert.Equal(t, "555", clients[0].Phone)
	assert.Equal(t, "T1", clients[0].TaxID)
	assert.Equal(t, entity.StatusActive, clients[0].Status)

	require.NoError(t, repo.DeactivateClient(ctx, ana.ID))
	clients, err = repo.ListActiveClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)

	assert.ErrorIs(t, repo.DeactivateClient(ctx, 42), database.ErrNotFound)
}

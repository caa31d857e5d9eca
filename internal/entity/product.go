package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Product is a sellable item with an allowed price band.
type Product struct {
	bun.BaseModel `bun:"table:productos,alias:pr"`

	ID           int64           `bun:"id_producto,pk,autoincrement"`
	Name         string          `bun:"nombre,notnull"`
	MinPrice     decimal.Decimal `bun:"precio_minimo,type:decimal(10,2),notnull"`
	MaxPrice     decimal.Decimal `bun:"precio_maximo,type:decimal(10,2),notnull"`
	AvailableQty int64           `bun:"cantidad_disponible,notnull"`
	Status       Status          `bun:"estado,notnull"`
}

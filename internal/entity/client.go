package entity

import "github.com/uptrace/bun"

// Client is a customer orders are placed for.
type Client struct {
	bun.BaseModel `bun:"table:clientes,alias:c"`

	ID     int64  `bun:"id_cliente,pk,autoincrement"`
	Name   string `bun:"nombre,notnull"`
	Email  string `bun:"email,notnull"`
	Phone  string `bun:"telefono,notnull"`
	TaxID  string `bun:"nit,notnull"`
	Status Status `bun:"estado,notnull"`
}

package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/ventas/internal/entity"
)

// Product is a product as exposed to HTTP clients.
type Product struct {
	ID           int64         `json:"productId"`
	Name         string        `json:"name"`
	MinPrice     Money         `json:"minPrice"`
	MaxPrice     Money         `json:"maxPrice"`
	AvailableQty int64         `json:"availableQty"`
	Status       entity.Status `json:"status"`
}

// CreateProductRequest is the body of POST /productos.
type CreateProductRequest struct {
	Name         string           `json:"name" validate:"required,max=100"`
	MinPrice     *decimal.Decimal `json:"minPrice" validate:"required"`
	MaxPrice     *decimal.Decimal `json:"maxPrice" validate:"required"`
	AvailableQty *int64           `json:"availableQty" validate:"required,gte=0,lte=2147483647"`
}

// ProductCreated is the body returned after creating a product.
type ProductCreated struct {
	ID int64 `json:"productId"`
}

// Client is a client as exposed to HTTP clients.
type Client struct {
	ID     int64         `json:"clientId"`
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	Phone  string        `json:"phone"`
	TaxID  string        `json:"taxId"`
	Status entity.Status `json:"status"`
}

// CreateClientRequest is the body of POST /clientes.
type CreateClientRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"omitempty,email,max=100"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
	TaxID string `json:"taxId" validate:"required,max=20"`
}

// ClientCreated is the body returned after creating a client.
type ClientCreated struct {
	ID int64 `json:"clientId"`
}

// NewProduct maps a stored product.
func NewProduct(p entity.Product) Product {
	return Product{
		ID:           p.ID,
		Name:         p.Name,
		MinPrice:     Money(p.MinPrice),
		MaxPrice:     Money(p.MaxPrice),
		AvailableQty: p.AvailableQty,
		Status:       p.Status,
	}
}

// NewProducts maps a product listing. An empty listing maps to an empty,
// non-nil slice so it renders as [].
func NewProducts(products []entity.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, NewProduct(p))
	}
	return out
}

// NewClient maps a stored client.
func NewClient(c entity.Client) Client {
	return Client{
		ID:     c.ID,
		Name:   c.Name,
		Email:  c.Email,
		Phone:  c.Phone,
		TaxID:  c.TaxID,
		Status: c.Status,
	}
}

// NewClients maps a client listing.
func NewClients(clients []entity.Client) []Client {
	out := make([]Client, 0, len(clients))
	for _, c := range clients {
		out = append(out, NewClient(c))
	}
	return out
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/products (carga del modelo de
// lectura del catálogo).
type CreateProductRequest struct {
	SKU       string          `json:"sku" validate:"required,min=1,max=64"`
	Name      string          `json:"name" validate:"required,min=2,max=200"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ProductDTO producto del catálogo.
type ProductDTO struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateWarehouseRequest body para POST /api/warehouses.
type CreateWarehouseRequest struct {
	Code     string `json:"code" validate:"required,min=1,max=32"`
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Priority int    `json:"priority" validate:"min=0"`
	Active   *bool  `json:"active"`
}

// WarehouseDTO bodega.
type WarehouseDTO struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

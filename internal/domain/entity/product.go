package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo. El catálogo es propiedad
// de un sistema externo; aquí se mantiene como modelo de lectura.
type Product struct {
	ID        string
	SKU       string // código único
	Name      string
	UnitPrice decimal.Decimal // precio de venta
	CreatedAt time.Time
	UpdatedAt time.Time
}

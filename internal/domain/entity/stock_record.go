package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados del stock según current_stock y reorder_point.
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// StockRecord representa el stock de un producto en una bodega. Es el único
// estado mutable compartido del motor; se modifica exclusivamente vía
// apply_movement dentro de una transacción. Version es el contador de
// concurrencia optimista: cada UPDATE exige la versión leída y la incrementa.
type StockRecord struct {
	ProductID     string
	WarehouseID   string
	CurrentStock  decimal.Decimal
	ReservedStock decimal.Decimal
	ReorderPoint  decimal.Decimal
	Status        string
	Version       int64
	UpdatedAt     time.Time
}

// Available devuelve el stock disponible: current_stock - reserved_stock.
func (s *StockRecord) Available() decimal.Decimal {
	return s.CurrentStock.Sub(s.ReservedStock)
}

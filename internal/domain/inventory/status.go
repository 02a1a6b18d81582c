package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// DeriveStatus implementa la derivación del estado de stock (servicio de dominio).
// out_of_stock si current <= 0; low_stock si current <= reorder_point; in_stock en otro caso.
func DeriveStatus(currentStock, reorderPoint decimal.Decimal) string {
	if currentStock.LessThanOrEqual(decimal.Zero) {
		return entity.StockStatusOutOfStock
	}
	if currentStock.LessThanOrEqual(reorderPoint) {
		return entity.StockStatusLowStock
	}
	return entity.StockStatusInStock
}

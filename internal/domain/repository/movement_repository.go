package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia para movimientos de
// inventario. Solo inserta y consulta: los movimientos son append-only.
type MovementRepository interface {
	Create(movement *entity.Movement) error
	GetByID(id string) (*entity.Movement, error)
	ListByProductWarehouse(productID, warehouseID string) ([]*entity.Movement, error)
	ListByReference(referenceType, referenceID string) ([]*entity.Movement, error)
	ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	// SumByProductWarehouse devuelve SUM(quantity) del libro para el replay de auditoría.
	SumByProductWarehouse(productID, warehouseID string) (decimal.Decimal, error)
}

package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// AllocationCandidate es una fila candidata para asignar una línea de compra:
// stock de una bodega activa con su prioridad. Available = current - reserved.
type AllocationCandidate struct {
	ProductID   string
	WarehouseID string
	Available   decimal.Decimal
	Priority    int
}

// StockUpdate es el resultado agregado por producto para el sync por polling.
type StockUpdate struct {
	ProductID   string
	NewStock    decimal.Decimal
	LastUpdated time.Time
}

// StockRecordRepository define el puerto para consultar/actualizar registros
// de stock por (producto, bodega). Las mutaciones exigen la versión leída
// (concurrencia optimista) y se usan siempre dentro de una transacción.
type StockRecordRepository interface {
	Get(productID, warehouseID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) dentro de la tx actual.
	GetForUpdate(productID, warehouseID string) (*entity.StockRecord, error)
	Create(record *entity.StockRecord) error
	// UpdateWithVersion actualiza exigiendo record.Version; si la fila cambió
	// de versión retorna domain.ErrConcurrentModification. Incrementa Version.
	UpdateWithVersion(record *entity.StockRecord) error
	// ListCandidates devuelve el stock del producto en bodegas activas,
	// ordenado por disponible descendente y prioridad ascendente. Con lock=true
	// bloquea las filas de stock para la asignación dentro de la tx.
	ListCandidates(productID string, lock bool) ([]AllocationCandidate, error)
	ListByProduct(productID string) ([]*entity.StockRecord, error)
	List(limit, offset int) ([]*entity.StockRecord, error)
	// ListUpdatedSince agrega el stock por producto para las filas actualizadas
	// después de since (sync por polling).
	ListUpdatedSince(ctx context.Context, since time.Time) ([]StockUpdate, error)
}

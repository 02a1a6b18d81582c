package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// SyncUseCase es el lado de consulta del inventario: stock por producto,
// kardex de movimientos y sincronización por polling de sistemas externos.
type SyncUseCase struct {
	stockRepo repository.StockRecordRepository
	movRepo   repository.MovementRepository
}

// NewSyncUseCase construye el caso de uso de consultas.
func NewSyncUseCase(stockRepo repository.StockRecordRepository, movRepo repository.MovementRepository) *SyncUseCase {
	return &SyncUseCase{stockRepo: stockRepo, movRepo: movRepo}
}

// GetProductStock devuelve el stock del producto en cada bodega, con el
// disponible y el estado derivado.
func (uc *SyncUseCase) GetProductStock(ctx context.Context, productID string) ([]dto.StockRecordDTO, error) {
	records, err := uc.stockRepo.ListByProduct(productID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.StockRecordDTO, 0, len(records))
	for _, r := range records {
		result = append(result, dto.StockRecordDTO{
			ProductID:     r.ProductID,
			WarehouseID:   r.WarehouseID,
			CurrentStock:  r.CurrentStock,
			ReservedStock: r.ReservedStock,
			Available:     r.Available(),
			ReorderPoint:  r.ReorderPoint,
			Status:        r.Status,
			UpdatedAt:     r.UpdatedAt,
		})
	}
	return result, nil
}

// GetMovement devuelve un movimiento del libro por su ID.
func (uc *SyncUseCase) GetMovement(ctx context.Context, id string) (*dto.MovementDTO, error) {
	movement, err := uc.movRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if movement == nil {
		return nil, domain.ErrNotFound
	}
	out := toMovementDTO(movement)
	return &out, nil
}

// ListWarehouseMovements lista los movimientos de una bodega, opcionalmente
// acotados por rango de fechas, paginados.
func (uc *SyncUseCase) ListWarehouseMovements(ctx context.Context, warehouseID string, from, to *time.Time, page dto.PageRequest) ([]dto.MovementDTO, error) {
	page.DefaultPage()
	movements, err := uc.movRepo.ListByWarehouse(warehouseID, from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toMovementDTOs(movements), nil
}

// GetKardex devuelve el historial completo de movimientos de un producto en
// una bodega, en orden cronológico. La suma de las cantidades reproduce el
// stock actual.
func (uc *SyncUseCase) GetKardex(ctx context.Context, productID, warehouseID string) ([]dto.MovementDTO, error) {
	movements, err := uc.movRepo.ListByProductWarehouse(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return toMovementDTOs(movements), nil
}

// GetUpdates devuelve {product_id, new_stock, last_updated} para los productos
// cuyo stock cambió después de since.
func (uc *SyncUseCase) GetUpdates(ctx context.Context, since time.Time) ([]dto.StockUpdateDTO, error) {
	updates, err := uc.stockRepo.ListUpdatedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	result := make([]dto.StockUpdateDTO, 0, len(updates))
	for _, u := range updates {
		result = append(result, dto.StockUpdateDTO{
			ProductID:   u.ProductID,
			NewStock:    u.NewStock,
			LastUpdated: u.LastUpdated,
		})
	}
	return result, nil
}

func toMovementDTO(m *entity.Movement) dto.MovementDTO {
	return dto.MovementDTO{
		ID:            m.ID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Date:          m.Date,
		CreatedBy:     m.CreatedBy,
	}
}

func toMovementDTOs(movements []*entity.Movement) []dto.MovementDTO {
	result := make([]dto.MovementDTO, 0, len(movements))
	for _, m := range movements {
		result = append(result, toMovementDTO(m))
	}
	return result
}

package inventory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// AuditUseCase verifica la integridad del libro: recalcula el stock de cada
// (producto, bodega) como SUM(quantity) de sus movimientos y lo compara con el
// almacenado. Un descuadre se reporta como DataIntegrityError y NUNCA se
// corrige automáticamente: es una señal para el operador.
type AuditUseCase struct {
	stockRepo repository.StockRecordRepository
	movRepo   repository.MovementRepository
	log       *logger.Logger
}

// NewAuditUseCase construye el verificador.
func NewAuditUseCase(stockRepo repository.StockRecordRepository, movRepo repository.MovementRepository, log *logger.Logger) *AuditUseCase {
	return &AuditUseCase{stockRepo: stockRepo, movRepo: movRepo, log: log}
}

// VerifyStockRecord verifica una sola fila de stock contra el libro.
func (uc *AuditUseCase) VerifyStockRecord(ctx context.Context, productID, warehouseID string) error {
	sum, err := uc.movRepo.SumByProductWarehouse(productID, warehouseID)
	if err != nil {
		return err
	}
	record, err := uc.stockRepo.Get(productID, warehouseID)
	if err != nil {
		return err
	}
	stored := decimal.Zero
	if record != nil {
		stored = record.CurrentStock
	}
	if sum.Equal(stored) {
		return nil
	}

	intErr := &domain.DataIntegrityError{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Expected:    sum,
		Stored:      stored,
	}
	uc.log.Error().
		Str("product_id", productID).
		Str("warehouse_id", warehouseID).
		Str("ledger_sum", sum.String()).
		Str("stored_stock", stored.String()).
		Msg("descuadre de inventario detectado; requiere intervención del operador")
	return intErr
}

// VerifyAll recorre todas las filas de stock y devuelve el reporte de
// descuadres. No corta en el primer error: el operador necesita la lista completa.
func (uc *AuditUseCase) VerifyAll(ctx context.Context) (*dto.IntegrityReportDTO, error) {
	const pageSize = 500
	report := &dto.IntegrityReportDTO{}
	for offset := 0; ; offset += pageSize {
		records, err := uc.stockRepo.List(pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			break
		}
		for _, record := range records {
			report.Checked++
			err := uc.VerifyStockRecord(ctx, record.ProductID, record.WarehouseID)
			if err == nil {
				continue
			}
			var intErr *domain.DataIntegrityError
			if !errors.As(err, &intErr) {
				return nil, err
			}
			report.Issues = append(report.Issues, dto.IntegrityIssueDTO{
				ProductID:   intErr.ProductID,
				WarehouseID: intErr.WarehouseID,
				LedgerSum:   intErr.Expected,
				StoredStock: intErr.Stored,
			})
		}
		if len(records) < pageSize {
			break
		}
	}
	return report, nil
}

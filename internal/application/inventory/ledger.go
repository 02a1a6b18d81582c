package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Almacen-api/internal/domain/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// maxConflictRetries reintentos internos ante ErrConcurrentModification antes
// de propagar el conflicto al caller.
const maxConflictRetries = 3

// retryOnConflict reejecuta fn mientras falle por modificación concurrente,
// hasta maxConflictRetries intentos.
func retryOnConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
	}
	return err
}

// ApplyMovementInput entrada para aplicar un movimiento sobre el libro.
// Quantity es con signo: positivo entrada/ajuste+, negativo salida.
// ConsumeReserved descuenta también reserved_stock (conversión de reserva).
type ApplyMovementInput struct {
	ProductID       string
	WarehouseID     string
	Type            string
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	ReferenceType   string
	ReferenceID     string
	CreatedBy       string
	ConsumeReserved bool
	Now             time.Time
}

// LedgerUseCase es el único punto de entrada de mutación de stock: valida los
// invariantes, recalcula el estado derivado y persiste la fila de stock junto
// con su movimiento inmutable en la misma unidad atómica.
type LedgerUseCase struct {
	txRunner      TxRunner
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

// NewLedgerUseCase construye el libro de stock.
func NewLedgerUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:      txRunner,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

// ApplyMovementInTx aplica un movimiento usando los repositorios del caller
// (misma transacción SQL). Invariantes: current_stock >= 0 salvo ajustes y
// disponible (current - reserved) >= 0 siempre. Devuelve la fila actualizada.
func (uc *LedgerUseCase) ApplyMovementInTx(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	input ApplyMovementInput,
) (*entity.StockRecord, error) {
	stock, err := stockRepo.GetForUpdate(input.ProductID, input.WarehouseID)
	if err != nil {
		return nil, err
	}
	isNew := stock == nil
	if isNew {
		stock = &entity.StockRecord{
			ProductID:     input.ProductID,
			WarehouseID:   input.WarehouseID,
			CurrentStock:  decimal.Zero,
			ReservedStock: decimal.Zero,
			ReorderPoint:  decimal.Zero,
		}
	}

	newCurrent := stock.CurrentStock.Add(input.Quantity)
	newReserved := stock.ReservedStock
	if input.ConsumeReserved {
		// Conversión de reserva: las unidades salen de lo ya reservado.
		newReserved = newReserved.Sub(input.Quantity.Neg())
	}

	if input.Type != entity.MovementTypeADJUSTMENT && newCurrent.LessThan(decimal.Zero) {
		return nil, domain.ErrNegativeStock
	}
	if newReserved.LessThan(decimal.Zero) || newCurrent.Sub(newReserved).LessThan(decimal.Zero) {
		return nil, domain.ErrNegativeStock
	}

	stock.CurrentStock = newCurrent
	stock.ReservedStock = newReserved
	stock.Status = domaininv.DeriveStatus(newCurrent, stock.ReorderPoint)
	stock.UpdatedAt = input.Now

	if isNew {
		if err := stockRepo.Create(stock); err != nil {
			return nil, err
		}
	} else if err := stockRepo.UpdateWithVersion(stock); err != nil {
		return nil, err
	}

	mov := &entity.Movement{
		ID:            uuid.New().String(),
		ProductID:     input.ProductID,
		WarehouseID:   input.WarehouseID,
		Type:          input.Type,
		Quantity:      input.Quantity,
		UnitCost:      input.UnitCost,
		TotalCost:     input.Quantity.Mul(input.UnitCost),
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		Date:          input.Now,
		CreatedAt:     input.Now,
		CreatedBy:     input.CreatedBy,
	}
	if err := movRepo.Create(mov); err != nil {
		return nil, err
	}
	return stock, nil
}

// RegisterMovement registra un movimiento administrativo (IN, ADJUSTMENT o
// TRANSFER) de forma transaccional. Las salidas de venta no pasan por aquí:
// las emite el coordinador de compras con su propia referencia.
func (uc *LedgerUseCase) RegisterMovement(ctx context.Context, userID string, input ApplyMovementInput, toWarehouseID string) ([]*entity.StockRecord, error) {
	switch input.Type {
	case entity.MovementTypeIN:
		if input.Quantity.LessThanOrEqual(decimal.Zero) || input.UnitCost.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovementTypeADJUSTMENT:
		if input.Quantity.IsZero() {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovementTypeTRANSFER:
		if !input.Quantity.GreaterThan(decimal.Zero) || toWarehouseID == "" || toWarehouseID == input.WarehouseID {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if wh, err := uc.warehouseRepo.GetByID(input.WarehouseID); err != nil || wh == nil {
		return nil, domain.ErrNotFound
	}
	if input.Type == entity.MovementTypeTRANSFER {
		if wh, err := uc.warehouseRepo.GetByID(toWarehouseID); err != nil || wh == nil {
			return nil, domain.ErrNotFound
		}
	}

	input.CreatedBy = userID
	input.ReferenceType = entity.ReferenceTypeManual
	if input.ReferenceID == "" {
		input.ReferenceID = uuid.New().String()
	}

	var updated []*entity.StockRecord
	err = retryOnConflict(func() error {
		updated = updated[:0]
		return uc.txRunner.Run(ctx, func(
			stockRepo repository.StockRecordRepository,
			movRepo repository.MovementRepository,
			_ repository.TransactionRepository,
			_ repository.ReservationRepository,
		) error {
			if input.Type != entity.MovementTypeTRANSFER {
				rec, err := uc.ApplyMovementInTx(stockRepo, movRepo, input)
				if err != nil {
					return err
				}
				updated = append(updated, rec)
				return nil
			}

			// TRANSFER: salida en origen y entrada en destino, misma tx y
			// misma referencia; dos movimientos en el libro.
			out := input
			out.Quantity = input.Quantity.Neg()
			origin, err := uc.ApplyMovementInTx(stockRepo, movRepo, out)
			if err != nil {
				return err
			}
			in := input
			in.WarehouseID = toWarehouseID
			dest, err := uc.ApplyMovementInTx(stockRepo, movRepo, in)
			if err != nil {
				return err
			}
			updated = append(updated, origin, dest)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

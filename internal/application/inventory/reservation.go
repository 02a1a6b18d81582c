package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Almacen-api/internal/domain/inventory"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// ReservationUseCase administra retenciones temporales de stock ligadas a
// cotizaciones: reservar, liberar, convertir en venta y expirar. Toda
// transición de estado sale de "active" y se protege con compare-and-set, de
// modo que liberación manual, conversión y barrido de expiración concurrentes
// nunca liberen las mismas unidades dos veces.
type ReservationUseCase struct {
	txRunner      TxRunner
	ledger        *LedgerUseCase
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	resRepo       repository.ReservationRepository // lecturas fuera de tx
	notifier      StockNotifier                    // opcional
	now           func() time.Time
}

// NewReservationUseCase construye el administrador de reservas.
func NewReservationUseCase(
	txRunner TxRunner,
	ledger *LedgerUseCase,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	resRepo repository.ReservationRepository,
	notifier StockNotifier,
) *ReservationUseCase {
	return &ReservationUseCase{
		txRunner:      txRunner,
		ledger:        ledger,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		resRepo:       resRepo,
		notifier:      notifier,
		now:           time.Now,
	}
}

// Reserve incrementa reserved_stock y crea la reserva activa con
// expiry = now + ttl. Falla con InsufficientStock si el disponible no alcanza.
func (uc *ReservationUseCase) Reserve(ctx context.Context, in dto.ReserveRequest) (*dto.ReservationResponse, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) || in.TTLSeconds <= 0 || in.QuoteID == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}
	warehouse, err := uc.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil || warehouse == nil {
		return nil, domain.ErrNotFound
	}
	if !warehouse.Active {
		return nil, domain.ErrConflict
	}

	now := uc.now()
	reservation := &entity.Reservation{
		ID:          uuid.New().String(),
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		QuoteID:     in.QuoteID,
		Quantity:    in.Quantity,
		Status:      entity.ReservationStatusActive,
		ExpiresAt:   now.Add(time.Duration(in.TTLSeconds) * time.Second),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = retryOnConflict(func() error {
		return uc.txRunner.Run(ctx, func(
			stockRepo repository.StockRecordRepository,
			_ repository.MovementRepository,
			_ repository.TransactionRepository,
			resRepo repository.ReservationRepository,
		) error {
			stock, err := stockRepo.GetForUpdate(in.ProductID, in.WarehouseID)
			if err != nil {
				return err
			}
			if stock == nil || stock.Available().LessThan(in.Quantity) {
				available := decimal.Zero
				if stock != nil {
					available = stock.Available()
				}
				return &domain.InsufficientStockError{
					ProductID:     in.ProductID,
					Requested:     in.Quantity,
					BestAvailable: available,
				}
			}
			stock.ReservedStock = stock.ReservedStock.Add(in.Quantity)
			stock.UpdatedAt = now
			if err := stockRepo.UpdateWithVersion(stock); err != nil {
				return err
			}
			return resRepo.Create(reservation)
		})
	})
	if err != nil {
		return nil, err
	}
	return toReservationResponse(reservation), nil
}

// Release libera una reserva activa: decrementa reserved_stock y marca
// released. Seguro frente a barridos de expiración o conversión concurrentes
// gracias al compare-and-set sobre el estado.
func (uc *ReservationUseCase) Release(ctx context.Context, reservationID string) error {
	return uc.transition(ctx, reservationID, entity.ReservationStatusReleased)
}

// Convert consume las unidades ya reservadas de una reserva activa sin
// revalidar disponibilidad: descuenta current y reserved a la vez, escribe el
// movimiento de salida y persiste una transacción comprometida de una línea.
func (uc *ReservationUseCase) Convert(ctx context.Context, reservationID, userID string, in dto.ConvertReservationRequest) (*dto.PurchaseResponse, error) {
	if in.CustomerName == "" || in.PaymentMethod == "" {
		return nil, domain.ErrInvalidInput
	}
	reservation, err := uc.resRepo.GetByID(reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, domain.ErrNotFound
	}
	product, err := uc.productRepo.GetByID(reservation.ProductID)
	if err != nil || product == nil {
		return nil, domain.ErrNotFound
	}

	txID := uuid.New().String()
	now := uc.now()
	lineTotal := reservation.Quantity.Mul(product.UnitPrice)
	var change StockChange

	err = retryOnConflict(func() error {
		return uc.txRunner.Run(ctx, func(
			stockRepo repository.StockRecordRepository,
			movRepo repository.MovementRepository,
			txRepo repository.TransactionRepository,
			resRepo repository.ReservationRepository,
		) error {
			ok, err := resRepo.CompareAndSetStatus(reservationID, entity.ReservationStatusActive, entity.ReservationStatusConverted)
			if err != nil {
				return err
			}
			if !ok {
				// Otro worker ya liberó, expiró o convirtió la reserva.
				return domain.ErrConflict
			}
			record, err := uc.ledger.ApplyMovementInTx(stockRepo, movRepo, ApplyMovementInput{
				ProductID:       reservation.ProductID,
				WarehouseID:     reservation.WarehouseID,
				Type:            entity.MovementTypeOUT,
				Quantity:        reservation.Quantity.Neg(),
				UnitCost:        product.UnitPrice,
				ReferenceType:   entity.ReferenceTypeTransaction,
				ReferenceID:     txID,
				CreatedBy:       userID,
				ConsumeReserved: true,
				Now:             now,
			})
			if err != nil {
				return err
			}
			change = StockChange{
				ProductID:    record.ProductID,
				WarehouseID:  record.WarehouseID,
				CurrentStock: record.CurrentStock,
				Available:    record.Available(),
				Status:       record.Status,
				At:           now,
			}

			header := &entity.Transaction{
				ID:            txID,
				CustomerName:  in.CustomerName,
				PaymentMethod: in.PaymentMethod,
				Status:        entity.TransactionStatusCommitted,
				Total:         lineTotal,
				PayloadHash: payloadFingerprint(dto.PurchaseRequest{
					CustomerName:  in.CustomerName,
					PaymentMethod: in.PaymentMethod,
					Items: []dto.PurchaseItemRequest{{
						ProductID: reservation.ProductID,
						Quantity:  reservation.Quantity,
						UnitPrice: product.UnitPrice,
					}},
				}),
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := txRepo.Create(header); err != nil {
				return err
			}
			return txRepo.CreateLine(&entity.TransactionLine{
				ID:            uuid.New().String(),
				TransactionID: txID,
				ProductID:     reservation.ProductID,
				WarehouseID:   reservation.WarehouseID,
				Quantity:      reservation.Quantity,
				UnitPrice:     product.UnitPrice,
				LineTotal:     lineTotal,
			})
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.notifier != nil {
		uc.notifier.PublishStockChange(change)
	}
	return &dto.PurchaseResponse{
		TransactionID: txID,
		TotalAmount:   lineTotal,
		ItemsProcessed: []dto.PurchaseItemResult{{
			ProductID:   reservation.ProductID,
			Quantity:    reservation.Quantity,
			WarehouseID: reservation.WarehouseID,
			LineTotal:   lineTotal,
		}},
		Status: entity.TransactionStatusCommitted,
	}, nil
}

// ExpireDue libera las reservas activas vencidas a la fecha actual usando el
// mismo compare-and-set que la liberación manual. Devuelve cuántas expiró.
func (uc *ReservationUseCase) ExpireDue(ctx context.Context) (int, error) {
	const batchSize = 100
	due, err := uc.resRepo.ListExpired(uc.now(), batchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, reservation := range due {
		err := uc.transition(ctx, reservation.ID, entity.ReservationStatusExpired)
		if err == nil {
			expired++
			continue
		}
		// ErrConflict: otro worker ganó la transición; no es un fallo del barrido.
		if err != domain.ErrConflict {
			return expired, err
		}
	}
	return expired, nil
}

// GetByID devuelve el estado de una reserva.
func (uc *ReservationUseCase) GetByID(ctx context.Context, reservationID string) (*dto.ReservationResponse, error) {
	reservation, err := uc.resRepo.GetByID(reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, domain.ErrNotFound
	}
	return toReservationResponse(reservation), nil
}

// ListByQuote devuelve todas las reservas asociadas a una cotización, en
// cualquier estado.
func (uc *ReservationUseCase) ListByQuote(ctx context.Context, quoteID string) ([]dto.ReservationResponse, error) {
	if quoteID == "" {
		return nil, domain.ErrInvalidInput
	}
	reservations, err := uc.resRepo.ListByQuote(quoteID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		result = append(result, *toReservationResponse(r))
	}
	return result, nil
}

// transition pasa una reserva de active a target y devuelve las unidades
// reservadas al disponible, todo en una tx.
func (uc *ReservationUseCase) transition(ctx context.Context, reservationID, target string) error {
	return retryOnConflict(func() error {
		return uc.txRunner.Run(ctx, func(
			stockRepo repository.StockRecordRepository,
			_ repository.MovementRepository,
			_ repository.TransactionRepository,
			resRepo repository.ReservationRepository,
		) error {
			reservation, err := resRepo.GetByID(reservationID)
			if err != nil {
				return err
			}
			if reservation == nil {
				return domain.ErrNotFound
			}
			ok, err := resRepo.CompareAndSetStatus(reservationID, entity.ReservationStatusActive, target)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrConflict
			}
			stock, err := stockRepo.GetForUpdate(reservation.ProductID, reservation.WarehouseID)
			if err != nil {
				return err
			}
			if stock == nil {
				return domain.ErrNotFound
			}
			stock.ReservedStock = stock.ReservedStock.Sub(reservation.Quantity)
			if stock.ReservedStock.LessThan(decimal.Zero) {
				return domain.ErrNegativeStock
			}
			stock.Status = domaininv.DeriveStatus(stock.CurrentStock, stock.ReorderPoint)
			stock.UpdatedAt = uc.now()
			return stockRepo.UpdateWithVersion(stock)
		})
	})
}

func toReservationResponse(r *entity.Reservation) *dto.ReservationResponse {
	return &dto.ReservationResponse{
		ID:          r.ID,
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		QuoteID:     r.QuoteID,
		Quantity:    r.Quantity,
		Status:      r.Status,
		ExpiresAt:   r.ExpiresAt,
	}
}

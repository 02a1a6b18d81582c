package inventory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// CoordinatorUseCase ejecuta compras de carrito completas: valida, asigna
// bodega por línea con el Planner, descuenta stock vía el libro y persiste
// cabecera y líneas, todo dentro de una sola transacción SQL. Cualquier fallo
// en cualquier paso revierte todo lo escrito: nunca quedan movimientos
// parciales visibles.
type CoordinatorUseCase struct {
	txRunner    TxRunner
	ledger      *LedgerUseCase
	planner     *Planner
	productRepo repository.ProductRepository
	stockRepo   repository.StockRecordRepository // lecturas fuera de tx (validate)
	txRepo      repository.TransactionRepository // chequeo de idempotencia fuera de tx
	notifier    StockNotifier                    // opcional
	now         func() time.Time
}

// NewCoordinatorUseCase construye el coordinador. notifier puede ser nil.
func NewCoordinatorUseCase(
	txRunner TxRunner,
	ledger *LedgerUseCase,
	planner *Planner,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRecordRepository,
	txRepo repository.TransactionRepository,
	notifier StockNotifier,
) *CoordinatorUseCase {
	return &CoordinatorUseCase{
		txRunner:    txRunner,
		ledger:      ledger,
		planner:     planner,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		txRepo:      txRepo,
		notifier:    notifier,
		now:         time.Now,
	}
}

// Validate corre el Planner en modo solo lectura contra el estado actual del
// libro, sin bloquear filas ni mutar nada (pre-chequeo de checkout).
func (uc *CoordinatorUseCase) Validate(ctx context.Context, in dto.ValidateCartRequest) (*dto.ValidateCartResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	resp := &dto.ValidateCartResponse{AllValid: true}
	for _, item := range in.Items {
		if !item.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		result := dto.CartItemValidation{ProductID: item.ProductID}

		product, err := uc.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			result.Error = "producto no encontrado"
			resp.AllValid = false
			resp.PerItem = append(resp.PerItem, result)
			continue
		}

		candidates, err := uc.stockRepo.ListCandidates(item.ProductID, false)
		if err != nil {
			return nil, err
		}
		pick, err := uc.planner.Pick(item.ProductID, item.Quantity, candidates)
		if err != nil {
			var insErr *domain.InsufficientStockError
			if !errors.As(err, &insErr) {
				return nil, err
			}
			result.Available = insErr.BestAvailable
			result.Error = insErr.Error()
			resp.AllValid = false
		} else {
			result.Available = pick.Available
			result.Valid = true
		}
		resp.PerItem = append(resp.PerItem, result)
	}
	return resp, nil
}

// Execute procesa la compra completa. Si transaction_id ya existe comprometido
// con payload idéntico devuelve el resultado anterior sin tocar nada (replay
// idempotente); con payload distinto falla con IdempotencyConflict. Los
// conflictos de concurrencia se reintentan de forma acotada antes de aflorar.
func (uc *CoordinatorUseCase) Execute(ctx context.Context, userID string, in dto.PurchaseRequest) (*dto.PurchaseResponse, error) {
	if err := uc.normalize(&in); err != nil {
		return nil, err
	}

	txID := in.TransactionID
	if txID == "" {
		txID = uuid.New().String()
	}
	fingerprint := payloadFingerprint(in)

	if resp, err := uc.replayOrConflict(txID, fingerprint, false); resp != nil || err != nil {
		return resp, err
	}

	// Orden estable de bloqueo por producto: dos compras concurrentes con los
	// mismos productos toman las filas en el mismo orden.
	lines := make([]dto.PurchaseItemRequest, len(in.Items))
	copy(lines, in.Items)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var (
		results []dto.PurchaseItemResult
		changes []StockChange
		total   decimal.Decimal
	)

	run := func() error {
		results = nil
		changes = nil
		total = decimal.Zero
		return uc.txRunner.Run(ctx, func(
			stockRepo repository.StockRecordRepository,
			movRepo repository.MovementRepository,
			txRepo repository.TransactionRepository,
			_ repository.ReservationRepository,
		) error {
			now := uc.now()
			for _, item := range lines {
				candidates, err := stockRepo.ListCandidates(item.ProductID, true)
				if err != nil {
					return err
				}
				pick, err := uc.planner.Pick(item.ProductID, item.Quantity, candidates)
				if err != nil {
					// Primer ítem sin bodega suficiente: aborta el carrito entero.
					return err
				}
				record, err := uc.ledger.ApplyMovementInTx(stockRepo, movRepo, ApplyMovementInput{
					ProductID:     item.ProductID,
					WarehouseID:   pick.WarehouseID,
					Type:          entity.MovementTypeOUT,
					Quantity:      item.Quantity.Neg(),
					UnitCost:      item.UnitPrice,
					ReferenceType: entity.ReferenceTypeTransaction,
					ReferenceID:   txID,
					CreatedBy:     userID,
					Now:           now,
				})
				if err != nil {
					return err
				}
				lineTotal := item.Quantity.Mul(item.UnitPrice)
				total = total.Add(lineTotal)
				results = append(results, dto.PurchaseItemResult{
					ProductID:   item.ProductID,
					Quantity:    item.Quantity,
					WarehouseID: pick.WarehouseID,
					LineTotal:   lineTotal,
				})
				changes = append(changes, StockChange{
					ProductID:    record.ProductID,
					WarehouseID:  record.WarehouseID,
					CurrentStock: record.CurrentStock,
					Available:    record.Available(),
					Status:       record.Status,
					At:           now,
				})
			}

			header := &entity.Transaction{
				ID:            txID,
				CustomerName:  in.CustomerName,
				PaymentMethod: in.PaymentMethod,
				Status:        entity.TransactionStatusCommitted,
				Total:         total,
				PayloadHash:   fingerprint,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := txRepo.Create(header); err != nil {
				return err
			}
			for _, r := range results {
				line := &entity.TransactionLine{
					ID:            uuid.New().String(),
					TransactionID: txID,
					ProductID:     r.ProductID,
					WarehouseID:   r.WarehouseID,
					Quantity:      r.Quantity,
					UnitPrice:     r.LineTotal.Div(r.Quantity),
					LineTotal:     r.LineTotal,
				}
				if err := txRepo.CreateLine(line); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := retryOnConflict(run)
	if errors.Is(err, domain.ErrDuplicate) {
		// Otro worker comprometió el mismo transaction_id entre el pre-chequeo
		// y el insert: resolver como replay o conflicto.
		return uc.replayOrConflict(txID, fingerprint, true)
	}
	if err != nil {
		uc.recordFailure(txID, in, fingerprint)
		return nil, err
	}

	if uc.notifier != nil {
		for _, change := range changes {
			uc.notifier.PublishStockChange(change)
		}
	}
	return &dto.PurchaseResponse{
		TransactionID:  txID,
		TotalAmount:    total,
		ItemsProcessed: results,
		Status:         entity.TransactionStatusCommitted,
	}, nil
}

// normalize valida el payload y completa precios unitarios en cero con el
// precio del catálogo.
func (uc *CoordinatorUseCase) normalize(in *dto.PurchaseRequest) error {
	if in.CustomerName == "" || in.PaymentMethod == "" || len(in.Items) == 0 {
		return domain.ErrInvalidInput
	}
	for i := range in.Items {
		item := &in.Items[i]
		if item.ProductID == "" || !item.Quantity.GreaterThan(decimal.Zero) || item.UnitPrice.LessThan(decimal.Zero) {
			return domain.ErrInvalidInput
		}
		product, err := uc.productRepo.GetByID(item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if item.UnitPrice.IsZero() {
			item.UnitPrice = product.UnitPrice
		}
	}
	return nil
}

// replayOrConflict resuelve el caso de transaction_id ya existente. Con
// requireExisting=true la transacción debe existir (carrera de inserción).
func (uc *CoordinatorUseCase) replayOrConflict(txID, fingerprint string, requireExisting bool) (*dto.PurchaseResponse, error) {
	existing, err := uc.txRepo.GetByID(txID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if requireExisting {
			return nil, domain.ErrConflict
		}
		return nil, nil
	}
	if existing.Status != entity.TransactionStatusCommitted {
		// Un intento fallido previo no bloquea el reintento.
		return nil, nil
	}
	if existing.PayloadHash != fingerprint {
		return nil, &domain.IdempotencyConflictError{TransactionID: txID}
	}

	lines, err := uc.txRepo.ListLines(txID)
	if err != nil {
		return nil, err
	}
	resp := &dto.PurchaseResponse{
		TransactionID: existing.ID,
		TotalAmount:   existing.Total,
		Status:        existing.Status,
	}
	for _, l := range lines {
		resp.ItemsProcessed = append(resp.ItemsProcessed, dto.PurchaseItemResult{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			WarehouseID: l.WarehouseID,
			LineTotal:   l.LineTotal,
		})
	}
	return resp, nil
}

// recordFailure deja traza del intento fallido (best effort, fuera de la tx
// revertida). Nunca pisa una transacción comprometida.
func (uc *CoordinatorUseCase) recordFailure(txID string, in dto.PurchaseRequest, fingerprint string) {
	now := uc.now()
	_ = uc.txRepo.UpsertFailed(&entity.Transaction{
		ID:            txID,
		CustomerName:  in.CustomerName,
		PaymentMethod: in.PaymentMethod,
		Status:        entity.TransactionStatusFailed,
		Total:         decimal.Zero,
		PayloadHash:   fingerprint,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// payloadFingerprint calcula la huella SHA-256 canónica del payload: cliente,
// medio de pago y líneas ordenadas por producto con precio final.
func payloadFingerprint(in dto.PurchaseRequest) string {
	items := make([]dto.PurchaseItemRequest, len(in.Items))
	copy(items, in.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	var b strings.Builder
	b.WriteString(in.CustomerName)
	b.WriteString("|")
	b.WriteString(in.PaymentMethod)
	for _, item := range items {
		fmt.Fprintf(&b, "|%s:%s:%s", item.ProductID, item.Quantity.String(), item.UnitPrice.String())
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

const testUser = "00000000-0000-0000-0000-0000000000aa"

func purchaseReq(txID string, items ...dto.PurchaseItemRequest) dto.PurchaseRequest {
	return dto.PurchaseRequest{
		TransactionID: txID,
		CustomerName:  "Cliente Prueba",
		PaymentMethod: "cash",
		Items:         items,
	}
}

func item(productID, qty, price string) dto.PurchaseItemRequest {
	return dto.PurchaseItemRequest{ProductID: productID, Quantity: dec(qty), UnitPrice: dec(price)}
}

// Compra feliz: asigna la bodega con más disponible, descuenta stock, deja el
// movimiento de salida y la transacción comprometida con su línea.
func TestCoordinator_CompraFeliz(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "10.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.addWarehouse("w2", "MED", 2, true)
	f.seedStock("p1", "w1", "5", "0")
	f.seedStock("p1", "w2", "3", "0")

	resp, err := f.coordinator.Execute(context.Background(), testUser, purchaseReq("", item("p1", "5", "10.00")))
	require.NoError(t, err)

	assert.Equal(t, entity.TransactionStatusCommitted, resp.Status)
	assert.True(t, resp.TotalAmount.Equal(dec("50.00")))
	require.Len(t, resp.ItemsProcessed, 1)
	assert.Equal(t, "w1", resp.ItemsProcessed[0].WarehouseID, "debe asignar la bodega con más disponible")

	// Stock de w1 queda en cero y el estado derivado en out_of_stock.
	rec := f.stock("p1", "w1")
	assert.True(t, rec.CurrentStock.IsZero())
	assert.Equal(t, entity.StockStatusOutOfStock, rec.Status)

	// La bodega no elegida queda intacta.
	assert.True(t, f.stock("p1", "w2").CurrentStock.Equal(dec("3")))

	// Movimiento de salida con cantidad negativa, referenciado a la transacción.
	movs, err := f.movRepo.ListByReference(entity.ReferenceTypeTransaction, resp.TransactionID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeOUT, movs[0].Type)
	assert.True(t, movs[0].Quantity.Equal(dec("-5")))
	assert.Equal(t, testUser, movs[0].CreatedBy)

	// Cabecera comprometida con su línea.
	header, err := f.txRepo.GetByID(resp.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, entity.TransactionStatusCommitted, header.Status)
	lines, err := f.txRepo.ListLines(resp.TransactionID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].LineTotal.Equal(dec("50.00")))

	// El cambio de stock se publicó al notificador.
	assert.Len(t, f.notifier.published(), 1)
}

// Ninguna bodega individual alcanza: el carrito aborta entero aunque la suma
// entre bodegas alcanzara, sin movimientos ni descuento de stock.
func TestCoordinator_SinBodegaSuficiente_AbortaSinEfectos(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "10.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.addWarehouse("w2", "MED", 2, true)
	f.seedStock("p1", "w1", "4", "0")
	f.seedStock("p1", "w2", "3", "0")
	movsBefore := f.movementCount()

	txID := uuid.New().String()
	_, err := f.coordinator.Execute(context.Background(), testUser, purchaseReq(txID, item("p1", "5", "10.00")))
	require.Error(t, err)

	var insErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assert.True(t, insErr.BestAvailable.Equal(dec("4")))

	// Nada cambió en el libro ni en el stock.
	assert.Equal(t, movsBefore, f.movementCount())
	assert.True(t, f.stock("p1", "w1").CurrentStock.Equal(dec("4")))
	assert.True(t, f.stock("p1", "w2").CurrentStock.Equal(dec("3")))

	// Queda la traza del intento fallido, que no bloquea un reintento.
	header, err := f.txRepo.GetByID(txID)
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, entity.TransactionStatusFailed, header.Status)
}

// Carrito multilinea: si la segunda línea falla, la primera también se
// revierte (rollback completo).
func TestCoordinator_MultilineaRevierteTodo(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "10.00")
	f.addProduct("p2", "SKU-2", "20.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "10", "0")
	f.seedStock("p2", "w1", "1", "0")
	movsBefore := f.movementCount()

	_, err := f.coordinator.Execute(context.Background(), testUser, purchaseReq("",
		item("p1", "2", "10.00"),
		item("p2", "5", "20.00"), // insuficiente
	))
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// La línea de p1 que sí alcanzaba también quedó revertida.
	assert.True(t, f.stock("p1", "w1").CurrentStock.Equal(dec("10")))
	assert.True(t, f.stock("p2", "w1").CurrentStock.Equal(dec("1")))
	assert.Equal(t, movsBefore, f.movementCount())
}

// Reintento con el mismo transaction_id y el mismo payload: devuelve el
// resultado original sin repetir el descuento (replay idempotente).
func TestCoordinator_ReplayIdempotente(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "10.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "10", "0")

	txID := uuid.New().String()
	req := purchaseReq(txID, item("p1", "3", "10.00"))

	first, err := f.coordinator.Execute(context.Background(), testUser, req)
	require.NoError(t, err)
	movsAfterFirst := f.movementCount()

	second, err := f.coordinator.Execute(context.Background(), testUser, req)
	require.NoError(t, err)

	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	require.Len(t, second.ItemsProcessed, 1)
	assert.Equal(t, "w1", second.ItemsProcessed[0].WarehouseID)

	// El stock solo se descontó una vez y no hay movimientos nuevos.
	assert.True(t, f.stock("p1", "w1").CurrentStock.Equal(dec("7")))
	assert.Equal(t, movsAfterFirst, f.movementCount())
}

// Mismo transaction_id con payload distinto: conflicto de idempotencia, sin
// tocar el stock.
func TestCoordinator_IdempotenciaConPayloadDistinto(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "10.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "10", "0")

	txID := uuid.New().String()
	_, err := f.coordinator.Execute(context.Background(), testUser, purchaseReq(txID, item("p1", "3", "10.00")))
	require.NoError(t, err)

	_, err = f.coordinator.Execute(context.Background(), testUser, purchaseReq(txID, item("p1", "4", "10.00")))
	require.Error(t, err)

	var idemErr *domain.IdempotencyConflictError
	require.ErrorAs(t, err, &idemErr)
	assert.Equal(t, txID, idemErr.TransactionID)
	assert.True(t, f.stock("p1", "w1").CurrentStock.Equal(dec("7")), "el payload conflictivo no debe tocar stock")
}

// Compras concurrentes sobre el mismo stock: nunca se vende más de lo que hay.
func TestCoordinator_ConcurrenciaSinSobreventa(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "10.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "20", "0")

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coordinator.Execute(context.Background(), testUser,
				purchaseReq("", item("p1", "5", "10.00")))
		}(i)
	}
	wg.Wait()

	ok, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 4, ok, "con 20 unidades y compras de 5 deben comprometerse exactamente 4")
	assert.Equal(t, 4, insufficient)

	rec := f.stock("p1", "w1")
	assert.True(t, rec.CurrentStock.IsZero(), "el stock final debe ser cero, nunca negativo")

	// El libro cuadra: la suma de movimientos es igual al stock almacenado.
	sum, err := f.movRepo.SumByProductWarehouse("p1", "w1")
	require.NoError(t, err)
	assert.True(t, sum.Equal(rec.CurrentStock))
}

// Validate es solo lectura: reporta por ítem sin bloquear ni mutar nada.
func TestCoordinator_ValidateSoloLectura(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "10.00")
	f.addProduct("p2", "SKU-2", "20.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "10", "0")
	f.seedStock("p2", "w1", "2", "0")
	movsBefore := f.movementCount()

	resp, err := f.coordinator.Validate(context.Background(), dto.ValidateCartRequest{
		Items: []dto.ValidateCartItemRequest{
			{ProductID: "p1", Quantity: dec("5")},
			{ProductID: "p2", Quantity: dec("5")},
		},
	})
	require.NoError(t, err)

	assert.False(t, resp.AllValid)
	require.Len(t, resp.PerItem, 2)
	assert.True(t, resp.PerItem[0].Valid)
	assert.True(t, resp.PerItem[0].Available.Equal(dec("10")))
	assert.False(t, resp.PerItem[1].Valid)
	assert.True(t, resp.PerItem[1].Available.Equal(dec("2")))
	assert.NotEmpty(t, resp.PerItem[1].Error)

	// Nada cambió.
	assert.Equal(t, movsBefore, f.movementCount())
	assert.True(t, f.stock("p1", "w1").CurrentStock.Equal(dec("10")))
}

// El disponible descuenta lo reservado: una reserva activa bloquea la venta
// de esas unidades.
func TestCoordinator_RespetaStockReservado(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "10.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "10", "6")

	_, err := f.coordinator.Execute(context.Background(), testUser, purchaseReq("", item("p1", "5", "10.00")))
	require.Error(t, err)

	var insErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assert.True(t, insErr.BestAvailable.Equal(dec("4")), "disponible = actual - reservado")

	_, err = f.coordinator.Execute(context.Background(), testUser, purchaseReq("", item("p1", "4", "10.00")))
	require.NoError(t, err)

	rec := f.stock("p1", "w1")
	assert.True(t, rec.CurrentStock.Equal(dec("6")))
	assert.True(t, rec.ReservedStock.Equal(dec("6")), "la compra no toca lo reservado")
	assert.True(t, rec.Available().IsZero())
}

// El precio unitario en cero se completa con el precio del catálogo.
func TestCoordinator_CompletaPrecioDeCatalogo(t *testing.T) {
	f := newEngineFixture()
	f.addProduct("p1", "SKU-1", "25.50")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "10", "0")

	resp, err := f.coordinator.Execute(context.Background(), testUser, purchaseReq("",
		dto.PurchaseItemRequest{ProductID: "p1", Quantity: dec("2"), UnitPrice: decimal.Zero}))
	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.Equal(dec("51.00")))
}

// Producto inexistente: la compra falla con NOT_FOUND antes de tocar nada.
func TestCoordinator_ProductoInexistente(t *testing.T) {
	f := newEngineFixture()
	f.addWarehouse("w1", "BOG", 1, true)

	_, err := f.coordinator.Execute(context.Background(), testUser, purchaseReq("", item("p-nope", "1", "10.00")))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

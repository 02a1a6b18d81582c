package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// GetUpdates agrega el stock por producto y solo incluye lo actualizado
// estrictamente después de since.
func TestSync_GetUpdatesAgregaPorProducto(t *testing.T) {
	f := newEngineFixture()
	sync := NewSyncUseCase(f.stockRepo, f.movRepo)

	f.addProduct("p1", "SKU-1", "10.00")
	f.addProduct("p2", "SKU-2", "20.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.addWarehouse("w2", "MED", 2, true)
	f.seedStock("p1", "w1", "10", "0")
	f.seedStock("p1", "w2", "5", "0")
	f.seedStock("p2", "w1", "3", "0")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.store.mu.Lock()
	f.store.stocks[stockKey("p1", "w1")].UpdatedAt = base.Add(1 * time.Minute)
	f.store.stocks[stockKey("p1", "w2")].UpdatedAt = base.Add(3 * time.Minute)
	f.store.stocks[stockKey("p2", "w1")].UpdatedAt = base.Add(-1 * time.Minute)
	f.store.mu.Unlock()

	updates, err := sync.GetUpdates(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, updates, 1, "p2 quedó fuera de la ventana")

	assert.Equal(t, "p1", updates[0].ProductID)
	assert.True(t, updates[0].NewStock.Equal(dec("15")), "suma de todas las bodegas del producto")
	assert.True(t, updates[0].LastUpdated.Equal(base.Add(3*time.Minute)))

	// El caller usa el last_updated mayor como since siguiente; no hay repetidos.
	updates, err = sync.GetUpdates(context.Background(), base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, updates)
}

// El kardex reproduce el stock actual sumando las cantidades con signo.
func TestSync_KardexReproduceElStock(t *testing.T) {
	f := newEngineFixture()
	sync := NewSyncUseCase(f.stockRepo, f.movRepo)

	f.addProduct("p1", "SKU-1", "10.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "10", "0")

	_, err := f.coordinator.Execute(context.Background(), testUser, purchaseReq("", item("p1", "4", "10.00")))
	require.NoError(t, err)

	kardex, err := sync.GetKardex(context.Background(), "p1", "w1")
	require.NoError(t, err)
	require.Len(t, kardex, 2)

	sum := kardex[0].Quantity.Add(kardex[1].Quantity)
	assert.True(t, sum.Equal(f.stock("p1", "w1").CurrentStock))

	got, err := sync.GetMovement(context.Background(), kardex[0].ID)
	require.NoError(t, err)
	assert.Equal(t, kardex[0].ID, got.ID)

	_, err = sync.GetMovement(context.Background(), "mov-nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// El listado por bodega respeta el rango de fechas y la paginación.
func TestSync_MovimientosPorBodega(t *testing.T) {
	f := newEngineFixture()
	sync := NewSyncUseCase(f.stockRepo, f.movRepo)

	f.addProduct("p1", "SKU-1", "10.00")
	f.addWarehouse("w1", "BOG", 1, true)
	f.seedStock("p1", "w1", "10", "0")

	cutoff := time.Now().Add(-time.Hour)
	movements, err := sync.ListWarehouseMovements(context.Background(), "w1", &cutoff, nil, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, movements, 1)

	before := time.Now().Add(-2 * time.Hour)
	movements, err = sync.ListWarehouseMovements(context.Background(), "w1", nil, &before, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, movements)
}

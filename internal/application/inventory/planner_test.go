package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

func candidate(warehouseID, available string, priority int) repository.AllocationCandidate {
	return repository.AllocationCandidate{
		ProductID:   "p1",
		WarehouseID: warehouseID,
		Available:   dec(available),
		Priority:    priority,
	}
}

// El asignador elige la bodega con mayor disponible entre las que alcanzan.
func TestPlanner_EligeMayorDisponible(t *testing.T) {
	p := NewPlanner()
	pick, err := p.Pick("p1", dec("3"), []repository.AllocationCandidate{
		candidate("w1", "5", 1),
		candidate("w2", "8", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, "w2", pick.WarehouseID, "debe elegir la bodega con más disponible")
}

// A igual disponible gana la bodega de menor prioridad.
func TestPlanner_EmpateDesempataPorPrioridad(t *testing.T) {
	p := NewPlanner()
	pick, err := p.Pick("p1", dec("3"), []repository.AllocationCandidate{
		candidate("w2", "5", 2),
		candidate("w1", "5", 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "w1", pick.WarehouseID)
}

// Una bodega con disponible exacto a la cantidad pedida califica.
func TestPlanner_DisponibleExactoCalifica(t *testing.T) {
	p := NewPlanner()
	pick, err := p.Pick("p1", dec("5"), []repository.AllocationCandidate{
		candidate("w1", "5", 1),
		candidate("w2", "3", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, "w1", pick.WarehouseID)
}

// Si ninguna bodega individual alcanza, la línea falla aunque la suma entre
// bodegas sí alcanzara, y el error trae la mejor disponibilidad encontrada.
func TestPlanner_SinBodegaSuficiente_NoParteLaLinea(t *testing.T) {
	p := NewPlanner()
	_, err := p.Pick("p1", dec("5"), []repository.AllocationCandidate{
		candidate("w1", "4", 1),
		candidate("w2", "3", 2),
	})
	require.Error(t, err)

	var insErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, "p1", insErr.ProductID)
	assert.True(t, insErr.Requested.Equal(dec("5")))
	assert.True(t, insErr.BestAvailable.Equal(dec("4")),
		"debe reportar la mejor disponibilidad en una sola bodega, no la suma")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// Sin candidatos el error reporta disponible cero.
func TestPlanner_SinCandidatos(t *testing.T) {
	p := NewPlanner()
	_, err := p.Pick("p1", dec("1"), nil)
	require.Error(t, err)

	var insErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &insErr)
	assert.True(t, insErr.BestAvailable.IsZero())
}

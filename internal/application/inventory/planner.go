package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Planner decide la bodega para cada línea pedida: entre las bodegas activas
// con disponible >= cantidad elige la de mayor disponible, desempatando por
// menor prioridad. Una línea nunca se parte entre bodegas: si ninguna bodega
// individual alcanza, la línea falla aunque la suma entre bodegas alcanzara.
type Planner struct{}

// NewPlanner construye el asignador.
func NewPlanner() *Planner {
	return &Planner{}
}

// Pick elige la bodega para (producto, cantidad) entre los candidatos dados.
// Si ninguna califica retorna InsufficientStockError con la mejor
// disponibilidad encontrada en una sola bodega.
func (p *Planner) Pick(productID string, quantity decimal.Decimal, candidates []repository.AllocationCandidate) (*repository.AllocationCandidate, error) {
	var best *repository.AllocationCandidate
	bestAvailable := decimal.Zero

	for i := range candidates {
		c := &candidates[i]
		if c.Available.GreaterThan(bestAvailable) {
			bestAvailable = c.Available
		}
		if c.Available.LessThan(quantity) {
			continue
		}
		if best == nil ||
			c.Available.GreaterThan(best.Available) ||
			(c.Available.Equal(best.Available) && c.Priority < best.Priority) {
			best = c
		}
	}

	if best == nil {
		return nil, &domain.InsufficientStockError{
			ProductID:     productID,
			Requested:     quantity,
			BestAvailable: bestAvailable,
		}
	}
	return best, nil
}

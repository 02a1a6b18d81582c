package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación sobre PostgreSQL (usable con pool o tx). Los
// movimientos son append-only: este adaptador no expone UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, warehouse_id, type, quantity, unit_cost, total_cost, reference_type, reference_id, date, created_at, created_by`

// Create persiste un movimiento de inventario.
func (r *MovementRepo) Create(movement *entity.Movement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	createdBy := (*string)(nil)
	if movement.CreatedBy != "" {
		createdBy = &movement.CreatedBy
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.WarehouseID, movement.Type,
		movement.Quantity, movement.UnitCost, movement.TotalCost,
		movement.ReferenceType, movement.ReferenceID,
		movement.Date, movement.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProductWarehouse lista todos los movimientos de un (producto, bodega)
// en orden cronológico (replay de auditoría).
func (r *MovementRepo) ListByProductWarehouse(productID, warehouseID string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements WHERE product_id = $1 AND warehouse_id = $2
		ORDER BY date ASC, created_at ASC`
	return r.list(query, productID, warehouseID)
}

// ListByReference lista los movimientos originados por un documento
// (transacción de compra, reserva, movimiento manual).
func (r *MovementRepo) ListByReference(referenceType, referenceID string) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at ASC`
	return r.list(query, referenceType, referenceID)
}

// ListByWarehouse lista movimientos de una bodega en un rango de fechas.
func (r *MovementRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements WHERE warehouse_id = $1`
	args := []any{warehouseID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY date DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.list(query, args...)
}

// SumByProductWarehouse devuelve SUM(quantity) del libro para el replay:
// entradas y ajustes positivos menos salidas (cantidad con signo).
func (r *MovementRepo) SumByProductWarehouse(productID, warehouseID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM movements WHERE product_id = $1 AND warehouse_id = $2`
	var sum decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, productID, warehouseID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var createdBy *string
	err := row.Scan(
		&m.ID, &m.ProductID, &m.WarehouseID, &m.Type,
		&m.Quantity, &m.UnitCost, &m.TotalCost,
		&m.ReferenceType, &m.ReferenceID,
		&m.Date, &m.CreatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

func (r *MovementRepo) list(query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var createdBy *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.WarehouseID, &m.Type,
			&m.Quantity, &m.UnitCost, &m.TotalCost,
			&m.ReferenceType, &m.ReferenceID,
			&m.Date, &m.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

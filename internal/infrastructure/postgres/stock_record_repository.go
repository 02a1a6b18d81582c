package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL
// (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockRecordColumns = `product_id, warehouse_id, current_stock, reserved_stock, reorder_point, status, version, updated_at`

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(
		&s.ProductID, &s.WarehouseID, &s.CurrentStock, &s.ReservedStock,
		&s.ReorderPoint, &s.Status, &s.Version, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Get obtiene la fila de stock de un producto en una bodega; nil si no existe.
func (r *StockRecordRepo) Get(productID, warehouseID string) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE product_id = $1 AND warehouse_id = $2`
	s, err := scanStockRecord(r.q.QueryRow(context.Background(), query, productID, warehouseID))
	if err != nil {
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene la fila y la bloquea para update (SELECT FOR UPDATE).
func (r *StockRecordRepo) GetForUpdate(productID, warehouseID string) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	s, err := scanStockRecord(r.q.QueryRow(context.Background(), query, productID, warehouseID))
	if err != nil {
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}
	return s, nil
}

// Create inserta una fila nueva con version = 1.
func (r *StockRecordRepo) Create(record *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (product_id, warehouse_id, current_stock, reserved_stock, reorder_point, status, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7)`
	_, err := r.q.Exec(context.Background(), query,
		record.ProductID, record.WarehouseID, record.CurrentStock, record.ReservedStock,
		record.ReorderPoint, record.Status, record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConcurrentModification
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	record.Version = 1
	return nil
}

// UpdateWithVersion actualiza la fila exigiendo la versión leída (concurrencia
// optimista). Si la versión cambió retorna ErrConcurrentModification.
func (r *StockRecordRepo) UpdateWithVersion(record *entity.StockRecord) error {
	query := `
		UPDATE stock_records
		SET current_stock = $3, reserved_stock = $4, reorder_point = $5,
		    status = $6, version = version + 1, updated_at = $7
		WHERE product_id = $1 AND warehouse_id = $2 AND version = $8`
	cmd, err := r.q.Exec(context.Background(), query,
		record.ProductID, record.WarehouseID, record.CurrentStock, record.ReservedStock,
		record.ReorderPoint, record.Status, record.UpdatedAt, record.Version,
	)
	if err != nil {
		return fmt.Errorf("update stock record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	record.Version++
	return nil
}

// ListCandidates devuelve el stock del producto en bodegas activas, ordenado
// por disponible descendente y prioridad ascendente. Con lock=true bloquea las
// filas de stock dentro de la tx actual (asignación de compras).
func (r *StockRecordRepo) ListCandidates(productID string, lock bool) ([]repository.AllocationCandidate, error) {
	query := `
		SELECT s.product_id, s.warehouse_id, s.current_stock - s.reserved_stock AS available, w.priority
		FROM stock_records s
		JOIN warehouses w ON w.id = s.warehouse_id
		WHERE s.product_id = $1 AND w.active
		ORDER BY available DESC, w.priority ASC`
	if lock {
		query += `
		FOR UPDATE OF s`
	}
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list allocation candidates: %w", err)
	}
	defer rows.Close()
	var list []repository.AllocationCandidate
	for rows.Next() {
		var c repository.AllocationCandidate
		if err := rows.Scan(&c.ProductID, &c.WarehouseID, &c.Available, &c.Priority); err != nil {
			return nil, fmt.Errorf("scan allocation candidate: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ListByProduct lista el stock de un producto en todas las bodegas.
func (r *StockRecordRepo) ListByProduct(productID string) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records WHERE product_id = $1 ORDER BY warehouse_id`
	return r.list(query, productID)
}

// List lista filas de stock con paginación (verificación de integridad).
func (r *StockRecordRepo) List(limit, offset int) ([]*entity.StockRecord, error) {
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records ORDER BY product_id, warehouse_id LIMIT $1 OFFSET $2`
	return r.list(query, limit, offset)
}

func (r *StockRecordRepo) list(query string, args ...any) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		var s entity.StockRecord
		if err := rows.Scan(&s.ProductID, &s.WarehouseID, &s.CurrentStock, &s.ReservedStock,
			&s.ReorderPoint, &s.Status, &s.Version, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// ListUpdatedSince agrega el stock por producto para filas actualizadas
// después de since (sync por polling de sistemas externos).
func (r *StockRecordRepo) ListUpdatedSince(ctx context.Context, since time.Time) ([]repository.StockUpdate, error) {
	query := `
		SELECT product_id, COALESCE(SUM(current_stock), 0) AS new_stock, MAX(updated_at) AS last_updated
		FROM stock_records
		WHERE updated_at > $1
		GROUP BY product_id
		ORDER BY last_updated ASC`
	rows, err := r.q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list stock updates: %w", err)
	}
	defer rows.Close()
	var list []repository.StockUpdate
	for rows.Next() {
		var u repository.StockUpdate
		if err := rows.Scan(&u.ProductID, &u.NewStock, &u.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan stock update: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

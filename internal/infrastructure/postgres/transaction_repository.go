package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación de TransactionRepository (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create persiste la cabecera. Puede pisar una cabecera previa en estado
// failed (reintento del mismo transaction_id); si el ID ya existe
// comprometido retorna domain.ErrDuplicate.
func (r *TransactionRepo) Create(tx *entity.Transaction) error {
	query := `
		INSERT INTO transactions (id, customer_name, payment_method, status, total, payload_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET customer_name = EXCLUDED.customer_name,
		    payment_method = EXCLUDED.payment_method,
		    status = EXCLUDED.status,
		    total = EXCLUDED.total,
		    payload_hash = EXCLUDED.payload_hash,
		    updated_at = EXCLUDED.updated_at
		WHERE transactions.status = 'failed'`
	cmd, err := r.q.Exec(context.Background(), query,
		tx.ID, tx.CustomerName, tx.PaymentMethod, tx.Status, tx.Total, tx.PayloadHash,
		tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		// Otro worker comprometió el mismo ID; el caller decide replay o conflicto.
		return domain.ErrDuplicate
	}
	return nil
}

// CreateLine persiste una línea de la transacción.
func (r *TransactionRepo) CreateLine(line *entity.TransactionLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transaction_lines (id, transaction_id, product_id, warehouse_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.TransactionID, line.ProductID, line.WarehouseID,
		line.Quantity, line.UnitPrice, line.LineTotal,
	)
	if err != nil {
		return fmt.Errorf("insert transaction line: %w", err)
	}
	return nil
}

// GetByID obtiene la cabecera por ID; nil si no existe.
func (r *TransactionRepo) GetByID(id string) (*entity.Transaction, error) {
	query := `
		SELECT id, customer_name, payment_method, status, total, payload_hash, created_at, updated_at
		FROM transactions WHERE id = $1`
	var t entity.Transaction
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&t.ID, &t.CustomerName, &t.PaymentMethod, &t.Status, &t.Total, &t.PayloadHash,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// ListLines lista las líneas de una transacción.
func (r *TransactionRepo) ListLines(transactionID string) ([]*entity.TransactionLine, error) {
	query := `
		SELECT id, transaction_id, product_id, warehouse_id, quantity, unit_price, line_total
		FROM transaction_lines WHERE transaction_id = $1 ORDER BY product_id`
	rows, err := r.q.Query(context.Background(), query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list transaction lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransactionLine
	for rows.Next() {
		var l entity.TransactionLine
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.ProductID, &l.WarehouseID,
			&l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan transaction line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// UpsertFailed registra la traza de un intento fallido. Nunca pisa una
// transacción comprometida.
func (r *TransactionRepo) UpsertFailed(tx *entity.Transaction) error {
	query := `
		INSERT INTO transactions (id, customer_name, payment_method, status, total, payload_hash, created_at, updated_at)
		VALUES ($1, $2, $3, 'failed', $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = 'failed', updated_at = EXCLUDED.updated_at
		WHERE transactions.status <> 'committed'`
	_, err := r.q.Exec(context.Background(), query,
		tx.ID, tx.CustomerName, tx.PaymentMethod, tx.Total, tx.PayloadHash,
		tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert failed transaction: %w", err)
	}
	return nil
}

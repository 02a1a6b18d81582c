package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL
// (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, product_id, warehouse_id, quote_id, quantity, status, expires_at, created_at, updated_at`

// Create persiste una reserva nueva.
func (r *ReservationRepo) Create(reservation *entity.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.New().String()
	}
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		reservation.ID, reservation.ProductID, reservation.WarehouseID, reservation.QuoteID,
		reservation.Quantity, reservation.Status, reservation.ExpiresAt,
		reservation.CreatedAt, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva por ID; nil si no existe.
func (r *ReservationRepo) GetByID(id string) (*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations WHERE id = $1`
	var res entity.Reservation
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&res.ID, &res.ProductID, &res.WarehouseID, &res.QuoteID,
		&res.Quantity, &res.Status, &res.ExpiresAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

// CompareAndSetStatus cambia el estado solo si el actual es from. false si
// otro worker ganó la transición (liberación, conversión o expiración
// concurrentes nunca liberan las mismas unidades dos veces).
func (r *ReservationRepo) CompareAndSetStatus(id, from, to string) (bool, error) {
	query := `
		UPDATE reservations SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`
	cmd, err := r.q.Exec(context.Background(), query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("compare-and-set reservation status: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// ListExpired devuelve reservas activas vencidas a now (barrido de expiración).
func (r *ReservationRepo) ListExpired(now time.Time, limit int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'active' AND expires_at <= $1
		ORDER BY expires_at ASC LIMIT $2`
	return r.list(query, now, limit)
}

// ListByQuote lista las reservas de una cotización.
func (r *ReservationRepo) ListByQuote(quoteID string) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations WHERE quote_id = $1 ORDER BY created_at ASC`
	return r.list(query, quoteID)
}

func (r *ReservationRepo) list(query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		if err := rows.Scan(&res.ID, &res.ProductID, &res.WarehouseID, &res.QuoteID,
			&res.Quantity, &res.Status, &res.ExpiresAt, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}

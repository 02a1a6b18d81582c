package repository

import (
	"time"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ReservationRepository define el puerto de persistencia para reservas.
type ReservationRepository interface {
	Create(reservation *entity.Reservation) error
	GetByID(id string) (*entity.Reservation, error)
	// CompareAndSetStatus cambia el estado solo si el actual es from
	// (UPDATE ... WHERE status = from). Devuelve false si otro worker ganó la
	// transición (liberación concurrente, barrido de expiración o conversión).
	CompareAndSetStatus(id, from, to string) (bool, error)
	// ListExpired devuelve reservas activas con expiración vencida a now.
	ListExpired(now time.Time, limit int) ([]*entity.Reservation, error)
	ListByQuote(quoteID string) ([]*entity.Reservation, error)
}

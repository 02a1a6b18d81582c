package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una reserva. Las transiciones salen siempre de "active" y se
// protegen con compare-and-set sobre el estado.
const (
	ReservationStatusActive    = "active"
	ReservationStatusReleased  = "released"
	ReservationStatusExpired   = "expired"
	ReservationStatusConverted = "converted"
)

// Reservation es una retención temporal de stock ligada a una cotización.
// Incrementa reserved_stock al crearse y lo libera al expirar, liberarse o
// convertirse en venta.
type Reservation struct {
	ID          string
	ProductID   string
	WarehouseID string
	QuoteID     string
	Quantity    decimal.Decimal
	Status      string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReserveRequest body para POST /api/reservations. TTLSeconds define la
// expiración de la retención.
type ReserveRequest struct {
	ProductID   string          `json:"product_id" validate:"required,uuid4"`
	WarehouseID string          `json:"warehouse_id" validate:"required,uuid4"`
	QuoteID     string          `json:"quote_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	TTLSeconds  int             `json:"ttl_seconds" validate:"required,min=1,max=604800"`
}

// ReservationResponse estado de una reserva.
type ReservationResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	QuoteID     string          `json:"quote_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Status      string          `json:"status"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// ConvertReservationRequest body para POST /api/reservations/:id/convert.
type ConvertReservationRequest struct {
	CustomerName  string `json:"customer_name" validate:"required,min=2,max=120"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card transfer credit"`
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una transacción de compra.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCommitted = "committed"
	TransactionStatusFailed    = "failed"
)

// Transaction es la cabecera de una compra atómica. Inmutable una vez
// comprometida. PayloadHash es la huella SHA-256 del payload original y
// soporta el replay idempotente por transaction_id.
type Transaction struct {
	ID            string
	CustomerName  string
	PaymentMethod string
	Status        string
	Total         decimal.Decimal
	PayloadHash   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TransactionLine es una línea de la compra: producto, bodega asignada,
// cantidad y precio. Una línea nunca se parte entre bodegas.
type TransactionLine struct {
	ID            string
	TransactionID string
	ProductID     string
	WarehouseID   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	LineTotal     decimal.Decimal
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         = "IN"         // entrada
	MovementTypeOUT        = "OUT"        // salida
	MovementTypeADJUSTMENT = "ADJUSTMENT" // ajuste
	MovementTypeTRANSFER   = "TRANSFER"   // traslado entre bodegas
)

// Tipos de referencia de un movimiento (documento que lo originó).
const (
	ReferenceTypeTransaction = "transaction"
	ReferenceTypeManual      = "manual"
)

// Movement representa un movimiento de inventario inmutable: se crea una sola
// vez por mutación de stock y nunca se edita ni borra. Quantity es con signo:
// positivo entrada/ajuste+, negativo salida. El replay del libro es
// SUM(quantity) por (producto, bodega).
type Movement struct {
	ID            string
	ProductID     string
	WarehouseID   string
	Type          string
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Date          time.Time
	CreatedAt     time.Time
	CreatedBy     string
}

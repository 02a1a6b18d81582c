package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// ErrInsufficientStock: ninguna bodega individual puede cubrir la cantidad pedida.
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrNegativeStock: el movimiento dejaría el disponible (actual - reservado) negativo.
	ErrNegativeStock = errors.New("el movimiento dejaría stock negativo")
	// ErrConcurrentModification: conflicto de versión optimista; el caller puede reintentar.
	ErrConcurrentModification = errors.New("modificación concurrente del registro de stock")
	// ErrIdempotencyConflict: mismo transaction_id con un payload distinto.
	ErrIdempotencyConflict = errors.New("transaction_id ya usado con otro payload")
	// ErrDataIntegrity: el replay del libro de movimientos no cuadra con el stock almacenado.
	ErrDataIntegrity = errors.New("inconsistencia entre movimientos y stock almacenado")
)

// InsufficientStockError identifica el ítem que falló y la mejor disponibilidad
// encontrada en una sola bodega (aunque la suma entre bodegas alcanzara).
type InsufficientStockError struct {
	ProductID     string
	Requested     decimal.Decimal
	BestAvailable decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: pedido %s, mejor disponible %s",
		e.ProductID, e.Requested, e.BestAvailable)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IdempotencyConflictError: el transaction_id ya existe comprometido con otro payload.
type IdempotencyConflictError struct {
	TransactionID string
}

func (e *IdempotencyConflictError) Error() string {
	return fmt.Sprintf("transaction_id %s ya existe con un payload distinto", e.TransactionID)
}

func (e *IdempotencyConflictError) Unwrap() error { return ErrIdempotencyConflict }

// DataIntegrityError: descuadre detectado por el replay del libro. Nunca se
// auto-corrige; es una señal para intervención del operador.
type DataIntegrityError struct {
	ProductID   string
	WarehouseID string
	Expected    decimal.Decimal // suma de movimientos
	Stored      decimal.Decimal // current_stock almacenado
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("descuadre de inventario producto %s bodega %s: movimientos suman %s, almacenado %s",
		e.ProductID, e.WarehouseID, e.Expected, e.Stored)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

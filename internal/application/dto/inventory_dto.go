package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// IN/ADJUSTMENT: product_id, warehouse_id, quantity (con signo en ajustes),
// unit_cost obligatorio en IN. TRANSFER: from/to_warehouse_id.
type RegisterMovementRequest struct {
	ProductID       string           `json:"product_id" validate:"required,uuid4"`
	WarehouseID     string           `json:"warehouse_id,omitempty" validate:"omitempty,uuid4"`
	FromWarehouseID string           `json:"from_warehouse_id,omitempty" validate:"omitempty,uuid4"`
	ToWarehouseID   string           `json:"to_warehouse_id,omitempty" validate:"omitempty,uuid4"`
	Type            string           `json:"type" validate:"required,oneof=IN ADJUSTMENT TRANSFER"`
	Quantity        decimal.Decimal  `json:"quantity" validate:"required"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
}

// MovementDTO movimiento inmutable del libro (kardex).
type MovementDTO struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Date          time.Time       `json:"date"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// StockUpdateDTO fila del sync por polling: stock agregado por producto.
type StockUpdateDTO struct {
	ProductID   string          `json:"product_id"`
	NewStock    decimal.Decimal `json:"new_stock"`
	LastUpdated time.Time       `json:"last_updated"`
}

// StockRecordDTO stock de un producto en una bodega, con estado derivado.
type StockRecordDTO struct {
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	ReservedStock decimal.Decimal `json:"reserved_stock"`
	Available     decimal.Decimal `json:"available"`
	ReorderPoint  decimal.Decimal `json:"reorder_point"`
	Status        string          `json:"status"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IntegrityIssueDTO descuadre encontrado por el replay de auditoría.
type IntegrityIssueDTO struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	LedgerSum   decimal.Decimal `json:"ledger_sum"`
	StoredStock decimal.Decimal `json:"stored_stock"`
}

// IntegrityReportDTO resultado de la verificación del libro de movimientos.
type IntegrityReportDTO struct {
	Checked int                 `json:"checked"`
	Issues  []IntegrityIssueDTO `json:"issues"`
}

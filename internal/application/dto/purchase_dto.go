package dto

import (
	"github.com/shopspring/decimal"
)

// PurchaseItemRequest línea pedida en una compra: producto, cantidad y precio
// unitario. La bodega la decide el asignador, nunca el caller.
type PurchaseItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid4"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PurchaseRequest body para POST /api/purchases. TransactionID es opcional:
// si el caller lo envía, la operación es idempotente por ese ID.
type PurchaseRequest struct {
	TransactionID string                `json:"transaction_id" validate:"omitempty,uuid4"`
	CustomerName  string                `json:"customer_name" validate:"required,min=2,max=120"`
	PaymentMethod string                `json:"payment_method" validate:"required,oneof=cash card transfer credit"`
	Items         []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PurchaseItemResult línea procesada: bodega asignada y total de línea.
type PurchaseItemResult struct {
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	WarehouseID string          `json:"warehouse_id"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PurchaseResponse resultado de process_purchase.
type PurchaseResponse struct {
	TransactionID  string               `json:"transaction_id"`
	TotalAmount    decimal.Decimal      `json:"total_amount"`
	ItemsProcessed []PurchaseItemResult `json:"items_processed"`
	Status         string               `json:"status"`
}

// ValidateCartItemRequest ítem a validar antes del checkout.
type ValidateCartItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid4"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
}

// ValidateCartRequest body para POST /api/purchases/validate.
type ValidateCartRequest struct {
	Items []ValidateCartItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CartItemValidation resultado por ítem de la validación (solo lectura).
// Available es la mejor disponibilidad en una sola bodega.
type CartItemValidation struct {
	ProductID string          `json:"product_id"`
	Available decimal.Decimal `json:"available"`
	Valid     bool            `json:"valid"`
	Error     string          `json:"error,omitempty"`
}

// ValidateCartResponse resultado de validate_cart.
type ValidateCartResponse struct {
	AllValid bool                 `json:"all_valid"`
	PerItem  []CartItemValidation `json:"per_item"`
}

package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
// Priority: menor = preferida por el asignador. Active: solo las bodegas
// activas participan en la asignación.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Active    bool
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

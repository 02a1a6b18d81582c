package entity

import "time"

// Roles de usuario de la API.
const (
	RoleAdmin    = "admin"
	RoleOperador = "operador"
)

// User representa un usuario de la API (tooling externo, integraciones).
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string // active | disabled
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package repository

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// TransactionRepository define el puerto de persistencia para transacciones de
// compra y sus líneas.
type TransactionRepository interface {
	Create(tx *entity.Transaction) error
	CreateLine(line *entity.TransactionLine) error
	GetByID(id string) (*entity.Transaction, error)
	ListLines(transactionID string) ([]*entity.TransactionLine, error)
	// UpsertFailed registra (o actualiza) una cabecera con status=failed para
	// trazabilidad de intentos fallidos. Nunca toca transacciones comprometidas.
	UpsertFailed(tx *entity.Transaction) error
}

package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor: commit si
// fn retorna nil, rollback completo en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.MovementRepository,
		txRepo repository.TransactionRepository,
		resRepo repository.ReservationRepository,
	) error) error
}

// StockChange notificación de cambio de stock tras un commit.
type StockChange struct {
	ProductID    string          `json:"product_id"`
	WarehouseID  string          `json:"warehouse_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Available    decimal.Decimal `json:"available"`
	Status       string          `json:"status"`
	At           time.Time       `json:"at"`
}

// StockNotifier publica cambios de stock a suscriptores (hub websocket).
// La publicación es fire-and-forget: nunca bloquea ni afecta la transacción.
type StockNotifier interface {
	PublishStockChange(change StockChange)
}

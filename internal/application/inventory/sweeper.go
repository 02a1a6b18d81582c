package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// ExpirySweeper ejecuta el barrido periódico de reservas vencidas.
type ExpirySweeper struct {
	reservations *ReservationUseCase
	interval     time.Duration
	log          *logger.Logger
}

// NewExpirySweeper construye el barrido con su intervalo.
func NewExpirySweeper(reservations *ReservationUseCase, interval time.Duration, log *logger.Logger) *ExpirySweeper {
	return &ExpirySweeper{reservations: reservations, interval: interval, log: log}
}

// Start lanza la goroutine del barrido; se detiene cuando ctx se cancela.
func (s *ExpirySweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info().Msg("barrido de reservas detenido")
				return
			case <-ticker.C:
				expired, err := s.reservations.ExpireDue(ctx)
				if err != nil {
					s.log.Error().Err(err).Msg("barrido de reservas")
					continue
				}
				if expired > 0 {
					s.log.Info().Int("expiradas", expired).Msg("reservas vencidas liberadas")
				}
			}
		}
	}()
}

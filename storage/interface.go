package storage

import (
	"context"

	"gmailfeed/internal/domain"
)

// Journal определяет общий интерфейс журнала попыток получения ленты.
// Журнал только пополняется и читается для API; состояние виджетов из него не восстанавливается.
type Journal interface {
	SaveOutcome(ctx context.Context, outcome domain.FetchOutcome) error
	ListOutcomes(ctx context.Context, n int) ([]domain.FetchOutcome, error)
	Close()
}

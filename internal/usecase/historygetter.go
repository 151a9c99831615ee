package usecase

import (
	"context"

	"gmailfeed/internal/domain"
)

// HistoryStorage определяет интерфейс для чтения журнала попыток.
type HistoryStorage interface {
	ListOutcomes(ctx context.Context, n int) ([]domain.FetchOutcome, error)
}

// HistoryGetterUseCase предоставляет доступ к журналу попыток для API.
type HistoryGetterUseCase struct {
	storage HistoryStorage
}

func NewHistoryGetterUseCase(s HistoryStorage) *HistoryGetterUseCase {
	return &HistoryGetterUseCase{storage: s}
}

// GetHistory возвращает последние записи журнала, новые первыми.
func (us *HistoryGetterUseCase) GetHistory(ctx context.Context, limit int) ([]domain.FetchOutcome, error) {
	return us.storage.ListOutcomes(ctx, limit)
}

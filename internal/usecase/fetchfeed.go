package usecase

import (
	"context"
	"io"

	"gmailfeed/internal/domain"
)

// FeedFetcher определяет интерфейс для загрузки ленты почтового ящика.
// Возвращает io.ReadCloser который должен быть закрыт после использования.
type FeedFetcher interface {
	Fetch(ctx context.Context, creds domain.Credentials) (io.ReadCloser, error)
}

// FeedParser определяет интерфейс для разбора ленты в доменную модель
// с обрезкой до maxItems записей.
type FeedParser interface {
	ParseReader(ctx context.Context, r io.Reader, maxItems int) (*domain.FeedResult, error)
}

// FetchJournal определяет интерфейс для записи результатов попыток в журнал.
type FetchJournal interface {
	SaveOutcome(ctx context.Context, outcome domain.FetchOutcome) error
}

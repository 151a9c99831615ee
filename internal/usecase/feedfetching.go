package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gmailfeed/internal/domain"
)

// FeedFetchingUseCase реализует получение ленты: загрузку, разбор, обрезку
// и запись результата в журнал, если он подключен.
type FeedFetchingUseCase struct {
	fetcher FeedFetcher
	parser  FeedParser
	journal FetchJournal
	log     *slog.Logger
	now     func() time.Time
}

// NewFeedFetchingUseCase создает новый экземпляр UseCase для получения ленты.
// journal может быть nil, тогда результаты никуда не записываются.
func NewFeedFetchingUseCase(
	fetcher FeedFetcher,
	parser FeedParser,
	journal FetchJournal,
	log *slog.Logger,
) *FeedFetchingUseCase {
	return &FeedFetchingUseCase{
		fetcher: fetcher,
		parser:  parser,
		journal: journal,
		log:     log,
		now:     time.Now,
	}
}

// Fetch выполняет один цикл получения ленты для creds.
// При неполных учетных данных сетевой запрос не выполняется.
// Ошибки загрузки и разбора возвращаются как *domain.FetchError;
// отмена контекста возвращается как есть.
func (uc *FeedFetchingUseCase) Fetch(ctx context.Context, creds domain.Credentials, maxItems int) (*domain.FeedResult, error) {
	start := time.Now()
	log := uc.log.With(
		slog.String("component", "feed-fetcher"),
		slog.String("account", creds.Username),
	)

	if !creds.Valid() {
		err := domain.NewConfigError()
		log.Warn("Feed fetch skipped", slog.String("stage", "config"), slog.Any("error", err))
		uc.record(ctx, creds.Username, nil, err)
		return nil, err
	}

	log.Debug("Fetching feed started")

	reader, err := uc.fetcher.Fetch(ctx, creds)
	if err != nil {
		log.Error("Feed fetch failed",
			slog.String("stage", "fetch"),
			slog.Any("error", err),
		)
		uc.record(ctx, creds.Username, nil, err)
		return nil, err
	}
	defer reader.Close()

	result, err := uc.parser.ParseReader(ctx, reader, maxItems)
	if err != nil {
		log.Error("Feed parsing failed",
			slog.String("stage", "parse"),
			slog.Any("error", err),
		)
		uc.record(ctx, creds.Username, nil, err)
		return nil, err
	}

	log.Info("Feed fetched successfully",
		slog.String("fullcount", result.FullCount),
		slog.Int("items_found", len(result.Entries)),
		slog.Duration("duration", time.Since(start)),
	)
	uc.record(ctx, creds.Username, result, nil)
	return result, nil
}

// Handle обрабатывает запрос из канала сообщений и формирует ответ,
// адресованный тому же аккаунту. Ответ содержит либо данные, либо ошибку.
func (uc *FeedFetchingUseCase) Handle(ctx context.Context, req domain.Request) domain.Response {
	resp := domain.Response{WidgetID: req.WidgetID, Username: req.Username, Seq: req.Seq}
	result, err := uc.Fetch(ctx, req.Credentials(), req.MaxItems)
	if err != nil {
		resp.Err = AsFetchError(err)
		return resp
	}
	resp.Data = result
	return resp
}

// AsFetchError приводит произвольную ошибку к *domain.FetchError.
// Ошибки без типа считаются транспортными.
func AsFetchError(err error) *domain.FetchError {
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}
	return domain.NewTransportError(err)
}

func (uc *FeedFetchingUseCase) record(ctx context.Context, account string, result *domain.FeedResult, err error) {
	if uc.journal == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}
	outcome := domain.FetchOutcome{
		Account:   account,
		FetchedAt: uc.now(),
		Outcome:   domain.OutcomeOK,
	}
	if err != nil {
		fetchErr := AsFetchError(err)
		outcome.Outcome = string(fetchErr.Kind)
		outcome.StatusCode = fetchErr.StatusCode
		outcome.Message = fetchErr.Message
	} else {
		outcome.FullCount = result.FullCount
		outcome.Entries = len(result.Entries)
	}
	if err := uc.journal.SaveOutcome(ctx, outcome); err != nil {
		uc.log.Warn("Failed to record fetch outcome",
			slog.String("component", "feed-fetcher"),
			slog.String("account", account),
			slog.Any("error", err),
		)
	}
}

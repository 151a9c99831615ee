package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"gmailfeed/internal/domain"
)

// HTTPFetcher загружает Atom-ленту почтового ящика по HTTP с Basic-аутентификацией.
// Выполняет ровно один запрос на вызов, без повторов и собственных таймаутов.
type HTTPFetcher struct {
	client  *http.Client
	log     *slog.Logger
	feedURL string
}

// NewHTTPFetcher создает загрузчик для ленты по адресу feedURL.
// Пустой feedURL означает адрес ленты Gmail.
func NewHTTPFetcher(log *slog.Logger, feedURL string) *HTTPFetcher {
	if feedURL == "" {
		feedURL = domain.DefaultFeedURL
	}
	return &HTTPFetcher{
		client:  http.DefaultClient,
		log:     log,
		feedURL: feedURL,
	}
}

// URL возвращает адрес ленты.
func (f *HTTPFetcher) URL() string { return f.feedURL }

// Fetch выполняет GET-запрос к ленте от имени creds.
// Возвращает тело ответа, которое должно быть закрыто после использования.
// Ответ со статусом вне 2xx возвращается как *domain.FetchError с кодом статуса,
// сетевые ошибки как *domain.FetchError без кода.
func (f *HTTPFetcher) Fetch(ctx context.Context, creds domain.Credentials) (io.ReadCloser, error) {
	log := f.log.With(
		slog.String("url", f.feedURL),
		slog.String("account", creds.Username),
	)
	log.Info("Fetching feed")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create request for url %s: %w", f.feedURL, err)
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	resp, err := f.client.Do(req)
	if err != nil {
		log.Error(
			"HTTP request failed",
			slog.Any("error", err),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.NewTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		log.Error(
			"Unexpected status code",
			slog.Int("status_code", resp.StatusCode),
		)
		return nil, domain.NewStatusError(resp.StatusCode)
	}
	log.Debug("Successfully fetched feed")
	return resp.Body, nil
}

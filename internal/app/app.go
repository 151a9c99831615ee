package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gmailfeed/internal/adapter/fetcher"
	"gmailfeed/internal/adapter/parser"
	"gmailfeed/internal/config"
	"gmailfeed/internal/logger"
	"gmailfeed/internal/migrations"
	"gmailfeed/internal/notify"
	"gmailfeed/internal/presenter"
	server "gmailfeed/internal/transport/http"
	"gmailfeed/internal/usecase"
	"gmailfeed/internal/widget"
	"gmailfeed/internal/worker"
	"gmailfeed/storage"
)

// App представляет приложение целиком.
// Координирует работу всех компонентов: виджетов, воркера получения ленты,
// канала сообщений, HTTP-сервера и журнала. Обеспечивает graceful startup и shutdown.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	hub      *notify.Hub
	worker   *worker.Worker
	board    *widget.Board
	server   *http.Server
	journal  storage.Journal
	listener net.Listener
	ready    chan struct{}
	wg       sync.WaitGroup
}

// New создает и инициализирует приложение.
// Выполняет настройку логгера, подключение к базе данных и миграции (если журнал включен),
// создание канала сообщений, воркера и виджетов.
// Возвращает ошибку в случае сбоя любой из инициализационных процедур.
func New(cfg *config.Config) (*App, error) {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return NewWithLogger(cfg, appLogger)
}

// NewWithLogger создает приложение с заданным логгером.
func NewWithLogger(cfg *config.Config, appLogger *slog.Logger) (*App, error) {
	slog.SetDefault(appLogger)

	var journal storage.Journal
	var history server.HistoryGetter
	var fetchJournal usecase.FetchJournal
	if cfg.Database.Enabled {
		pj, err := openJournal(cfg.Database, appLogger)
		if err != nil {
			return nil, err
		}
		journal = pj
		fetchJournal = pj
		history = usecase.NewHistoryGetterUseCase(pj)
	}

	hub := notify.New(appLogger, 16)
	httpFetcher := fetcher.NewHTTPFetcher(appLogger, cfg.Feed.URL)
	atomParser := parser.NewAtomParser(appLogger)
	feedFetcher := usecase.NewFeedFetchingUseCase(httpFetcher, atomParser, fetchJournal, appLogger)
	fetchWorker := worker.New(feedFetcher, hub, appLogger)

	board := widget.NewBoard()
	for _, wc := range cfg.Widgets {
		p := presenter.New(presenter.Config{
			Name:           wc.Name,
			Credentials:    wc.Credentials(),
			UpdateInterval: wc.Interval(),
			MaxItems:       wc.Items(),
			PlaySound:      wc.SoundEnabled(),
			Options: map[string]any{
				"displayMode": wc.DisplayMode,
				"autoHide":    wc.AutoHide,
			},
		}, hub, appLogger)
		board.Add(p, widget.Display{
			MaxSubjectLength:         wc.MaxSubjectLength,
			MaxFromLength:            wc.MaxFromLength,
			AutoHide:                 wc.AutoHide,
			DisplayMode:              wc.DisplayMode,
			Color:                    wc.ColorEnabled(),
			ShowEmailAddressInHeader: wc.AddressInHeader(),
			PlaySound:                wc.SoundEnabled(),
		})
	}

	router := server.NewServer(appLogger, server.NewHandler(appLogger, board, history))

	return &App{
		config:  cfg,
		logger:  appLogger,
		hub:     hub,
		worker:  fetchWorker,
		board:   board,
		journal: journal,
		server: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ready: make(chan struct{}),
	}, nil
}

func openJournal(cfg config.DatabaseConfig, log *slog.Logger) (*storage.PostgresJournal, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	dbPool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := migrations.Apply(ctx, log, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return storage.NewPostgresJournal(dbPool, log), nil
}

// Board возвращает набор виджетов приложения.
func (a *App) Board() *widget.Board { return a.board }

// Addr ждет запуска Run и возвращает адрес HTTP-сервера.
// Если слушать адрес не удалось, возвращает nil.
func (a *App) Addr() net.Addr {
	<-a.ready
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Run запускает воркер, виджеты и HTTP-сервер и блокируется до отмены ctx,
// после чего выполняет graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting gmailfeed",
		slog.String("component", "app"),
		slog.Int("widget_count", len(a.config.Widgets)),
		slog.String("feed_url", a.config.Feed.URL),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		close(a.ready)
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.listener = listener
	close(a.ready)

	a.worker.Start()

	widgetCtx, cancelWidgets := context.WithCancel(ctx)
	defer cancelWidgets()
	for _, p := range a.board.Presenters() {
		responses, unsubscribe := a.hub.Subscribe()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			defer unsubscribe()
			p.Run(widgetCtx, responses)
		}()
	}

	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received", slog.String("component", "app"))
		err = nil
	case err = <-serverErr:
	}
	cancelWidgets()
	a.Shutdown()
	return err
}

// Shutdown останавливает HTTP-сервер, виджеты и воркер и закрывает журнал.
// HTTP-сервер останавливается первым: после него ручных обновлений больше нет.
// Использует таймаут 10 секунд для завершения HTTP-сервера.
func (a *App) Shutdown() {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	a.wg.Wait()
	a.worker.Stop()
	a.hub.Close()
	if a.journal != nil {
		a.journal.Close()
	}
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
}

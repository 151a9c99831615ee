package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gmailfeed/internal/domain"
)

// RequestHandler определяет интерфейс для обработки одного запроса на получение ленты.
// Используется для внедрения зависимости в воркер.
type RequestHandler interface {
	Handle(ctx context.Context, req domain.Request) domain.Response
}

// Channel определяет интерфейс канала сообщений, из которого воркер
// читает запросы и в который публикует ответы.
type Channel interface {
	Requests() <-chan domain.Request
	Publish(ctx context.Context, resp domain.Response) error
}

// Worker реализует сторону Fetcher-а в канале сообщений.
// Каждый запрос обрабатывается в своей горутине: перекрывающиеся запросы
// не объединяются и не отменяют друг друга.
type Worker struct {
	handler  RequestHandler
	channel  Channel
	log      *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	handled  atomic.Int64
	failed   atomic.Int64
	inFlight atomic.Int64
	loopDone chan struct{}
}

// New создает воркер, обслуживающий запросы из channel с помощью handler.
func New(handler RequestHandler, channel Channel, log *slog.Logger) *Worker {
	return &Worker{
		handler: handler,
		channel: channel,
		log:     log,
	}
}

// Start запускает воркер в отдельной горутине.
// Инициализирует контекст с возможностью отмены и начинает цикл обработки.
func (w *Worker) Start() {
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.loopDone = make(chan struct{})
	go w.run()
}

// Stop отменяет контекст и дожидается завершения запросов в обработке.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.loopDone
	w.wg.Wait()
	w.log.Info("Worker stopped",
		slog.String("component", "worker"),
		slog.Int64("handled", w.handled.Load()),
		slog.Int64("errors", w.failed.Load()),
	)
}

// Stats возвращает число обработанных запросов, число ошибок и число запросов в работе.
func (w *Worker) Stats() (handled, failed, inFlight int64) {
	return w.handled.Load(), w.failed.Load(), w.inFlight.Load()
}

func (w *Worker) run() {
	defer close(w.loopDone)
	w.log.Info("Fetch worker started", slog.String("component", "worker"))
	for {
		select {
		case req := <-w.channel.Requests():
			w.wg.Add(1)
			go w.serve(req)
		case <-w.ctx.Done():
			w.log.Info("Worker stopping", slog.String("component", "worker"))
			return
		}
	}
}

// serve обрабатывает один запрос и публикует ответ.
// Ответ на запрос, прерванный остановкой воркера, не публикуется.
func (w *Worker) serve(req domain.Request) {
	defer w.wg.Done()
	w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	start := time.Now()
	if w.handler == nil {
		w.log.Error("handler no init")
		return
	}
	resp := w.handler.Handle(w.ctx, req)
	if w.ctx.Err() != nil {
		return
	}
	w.handled.Add(1)
	if resp.Err != nil {
		w.failed.Add(1)
	}
	if err := w.channel.Publish(w.ctx, resp); err != nil {
		w.log.Warn("Failed to publish response",
			slog.String("component", "worker"),
			slog.String("account", req.Username),
			slog.Any("error", err),
		)
		return
	}
	w.log.Debug("Request served",
		slog.String("component", "worker"),
		slog.String("account", req.Username),
		slog.Uint64("seq", req.Seq),
		slog.Bool("ok", resp.Err == nil),
		slog.Duration("duration", time.Since(start)),
	)
}

package notify

import (
	"context"
	"log/slog"
	"sync"

	"gmailfeed/internal/domain"
)

// Hub асинхронный канал сообщений между Presenter-ами и Fetcher-ом.
// Запросы попадают в одну очередь, ответы рассылаются всем подписчикам;
// каждый подписчик сам отбрасывает ответы, адресованные не ему.
type Hub struct {
	requests    chan domain.Request
	mu          sync.RWMutex
	subscribers map[int]chan domain.Response
	nextID      int
	done        chan struct{}
	closeOnce   sync.Once
	log         *slog.Logger
}

// New создает канал с очередью запросов размера buffer.
func New(log *slog.Logger, buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		requests:    make(chan domain.Request, buffer),
		subscribers: make(map[int]chan domain.Response),
		done:        make(chan struct{}),
		log:         log,
	}
}

// Send ставит запрос в очередь и никогда не блокирует вызывающего.
// При заполненной очереди запрос досылается из отдельной горутины.
func (h *Hub) Send(req domain.Request) {
	select {
	case h.requests <- req:
		return
	case <-h.done:
		return
	default:
	}
	h.log.Debug("Request queue full, sending asynchronously",
		slog.String("component", "notify"),
		slog.String("account", req.Username),
	)
	go func() {
		select {
		case h.requests <- req:
		case <-h.done:
		}
	}()
}

// Requests возвращает очередь запросов для Fetcher-а.
func (h *Hub) Requests() <-chan domain.Request { return h.requests }

// Subscribe регистрирует получателя ответов. Возвращаемая функция отменяет подписку.
func (h *Hub) Subscribe() (<-chan domain.Response, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan domain.Response, cap(h.requests))
	h.subscribers[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers, id)
	}
}

// Publish рассылает ответ всем подписчикам. Блокируется, пока каждый
// подписчик не примет ответ или не будет отменен ctx.
func (h *Hub) Publish(ctx context.Context, resp domain.Response) error {
	h.mu.RLock()
	targets := make([]chan domain.Response, 0, len(h.subscribers))
	for _, ch := range h.subscribers {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()
	for _, ch := range targets {
		select {
		case ch <- resp:
		case <-ctx.Done():
			return ctx.Err()
		case <-h.done:
			return nil
		}
	}
	return nil
}

// Close прекращает доставку; повторный вызов безопасен.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

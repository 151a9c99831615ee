package presenter

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"gmailfeed/internal/domain"
)

// DefaultUpdateInterval используется, если интервал опроса не задан или не положителен.
const DefaultUpdateInterval = 5 * time.Minute

var lastWidgetID atomic.Uint64

// Requester определяет интерфейс отправки запросов в канал сообщений.
// Send не должен блокировать вызывающего.
type Requester interface {
	Send(req domain.Request)
}

// Config настройки одного виджета, относящиеся к опросу.
type Config struct {
	Name           string
	Credentials    domain.Credentials
	UpdateInterval time.Duration
	MaxItems       int
	PlaySound      bool
	Options        map[string]any
}

// Snapshot согласованная копия состояния виджета для отрисовки.
type Snapshot struct {
	Name      string
	Account   string
	State     State
	Chime     bool
	Renders   uint64
	UpdatedAt time.Time
}

// Presenter владеет состоянием одного виджета: запускает опрос по таймеру,
// отправляет запросы Fetcher-у и применяет его ответы.
// Ответ на собственный запрос старше уже примененного отбрасывается по номеру
// последовательности. Ответы на запросы других виджетов того же аккаунта
// применяются после обрезки до собственного MaxItems.
type Presenter struct {
	id        uint64
	cfg       Config
	requester Requester
	log       *slog.Logger
	now       func() time.Time

	mu        sync.RWMutex
	state     State
	seq       uint64
	applied   uint64
	mailCount int
	chime     bool
	renders   uint64
	updatedAt time.Time
	listeners []func(Snapshot)
}

// New создает виджет в состоянии Uninitialized.
func New(cfg Config, requester Requester, log *slog.Logger) *Presenter {
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}
	if cfg.MaxItems < 0 {
		cfg.MaxItems = 0
	}
	return &Presenter{
		id:        lastWidgetID.Add(1),
		cfg:       cfg,
		requester: requester,
		log: log.With(
			slog.String("component", "presenter"),
			slog.String("widget", cfg.Name),
			slog.String("account", cfg.Credentials.Username),
		),
		now:   time.Now,
		state: Uninitialized{},
	}
}

// Name возвращает имя виджета.
func (p *Presenter) Name() string { return p.cfg.Name }

// OnRender регистрирует обработчик, вызываемый после каждой смены состояния.
func (p *Presenter) OnRender(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Initialize проверяет учетные данные. При неполных данных виджет сразу
// переходит в Errored с ошибкой конфигурации, иначе запрашивает ленту.
func (p *Presenter) Initialize() {
	if !p.cfg.Credentials.Valid() {
		p.log.Warn("Credentials missing, widget disabled until restart")
		p.transition(Errored{Err: domain.NewConfigError()})
		return
	}
	p.RequestRefresh()
}

// RequestRefresh асинхронно запрашивает ленту. При неполных учетных данных
// ничего не делает.
func (p *Presenter) RequestRefresh() {
	if !p.cfg.Credentials.Valid() {
		return
	}
	p.mu.Lock()
	p.seq++
	req := domain.Request{
		WidgetID: p.id,
		Username: p.cfg.Credentials.Username,
		Password: p.cfg.Credentials.Password,
		MaxItems: p.cfg.MaxItems,
		Seq:      p.seq,
		Options:  maps.Clone(p.cfg.Options),
	}
	p.mu.Unlock()
	p.log.Debug("Requesting feed", slog.Uint64("seq", req.Seq))
	p.requester.Send(req)
}

// HandleResponse применяет ответ Fetcher-а. Возвращает false, если ответ
// адресован другому аккаунту или устарел.
func (p *Presenter) HandleResponse(resp domain.Response) bool {
	if resp.Username != p.cfg.Credentials.Username {
		return false
	}
	var next State
	switch {
	case resp.Err != nil:
		next = Errored{Err: resp.Err}
	case resp.Data != nil:
		next = Loaded{Result: resp.Data.Truncated(p.cfg.MaxItems)}
	default:
		next = Errored{Err: &domain.FetchError{Kind: domain.KindTransport, Message: "Unknown error"}}
	}

	// Номера последовательности сравнимы только у собственных запросов.
	own := resp.WidgetID == 0 || resp.WidgetID == p.id
	p.mu.Lock()
	if own && resp.Seq != 0 && resp.Seq < p.applied {
		p.mu.Unlock()
		p.log.Debug("Discarding stale response", slog.Uint64("seq", resp.Seq))
		return false
	}
	if own && resp.Seq > p.applied {
		p.applied = resp.Seq
	}
	p.chime = false
	if loaded, ok := next.(Loaded); ok {
		if count, ok := loaded.Result.Count(); ok {
			p.chime = p.cfg.PlaySound && count > p.mailCount
			p.mailCount = count
		}
	}
	snap, listeners := p.setStateLocked(next)
	p.mu.Unlock()

	switch s := next.(type) {
	case Loaded:
		p.log.Info("Feed updated",
			slog.String("fullcount", s.Result.FullCount),
			slog.Int("count", len(s.Result.Entries)),
		)
	case Errored:
		p.log.Error("Feed update failed", slog.Any("error", s.Err))
	}
	notify(snap, listeners)
	return true
}

// transition заменяет состояние целиком и запрашивает перерисовку.
func (p *Presenter) transition(next State) {
	p.mu.Lock()
	snap, listeners := p.setStateLocked(next)
	p.mu.Unlock()
	notify(snap, listeners)
}

func (p *Presenter) setStateLocked(next State) (Snapshot, []func(Snapshot)) {
	p.state = next
	p.renders++
	p.updatedAt = p.now()
	return p.snapshotLocked(), append([]func(Snapshot){}, p.listeners...)
}

func notify(snap Snapshot, listeners []func(Snapshot)) {
	for _, fn := range listeners {
		fn(snap)
	}
}

// Snapshot возвращает текущее состояние.
func (p *Presenter) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

func (p *Presenter) snapshotLocked() Snapshot {
	return Snapshot{
		Name:      p.cfg.Name,
		Account:   p.cfg.Credentials.Username,
		State:     p.state,
		Chime:     p.chime,
		Renders:   p.renders,
		UpdatedAt: p.updatedAt,
	}
}

// Run инициализирует виджет и обслуживает таймер и ответы до отмены ctx.
// Таймер запускается и при неполных учетных данных; тогда его срабатывания
// ничего не делают.
func (p *Presenter) Run(ctx context.Context, responses <-chan domain.Response) {
	p.log.Info("Widget started", slog.String("interval", p.cfg.UpdateInterval.String()))
	p.Initialize()
	ticker := time.NewTicker(p.cfg.UpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.RequestRefresh()
		case resp, ok := <-responses:
			if !ok {
				p.log.Info("Widget stopping: response channel closed")
				return
			}
			p.HandleResponse(resp)
		case <-ctx.Done():
			p.log.Info("Widget stopping")
			return
		}
	}
}

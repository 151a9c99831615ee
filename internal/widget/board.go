package widget

import (
	"time"

	"gmailfeed/internal/presenter"
)

// Board набор виджетов с их настройками отображения, в порядке добавления.
type Board struct {
	names   []string
	widgets map[string]boardEntry
}

type boardEntry struct {
	presenter *presenter.Presenter
	display   Display
}

func NewBoard() *Board {
	return &Board{widgets: make(map[string]boardEntry)}
}

// Add регистрирует виджет. Повторное имя заменяет прежний виджет.
func (b *Board) Add(p *presenter.Presenter, d Display) {
	if _, ok := b.widgets[p.Name()]; !ok {
		b.names = append(b.names, p.Name())
	}
	b.widgets[p.Name()] = boardEntry{presenter: p, display: d}
}

// Presenters возвращает виджеты в порядке добавления.
func (b *Board) Presenters() []*presenter.Presenter {
	out := make([]*presenter.Presenter, 0, len(b.names))
	for _, name := range b.names {
		out = append(out, b.widgets[name].presenter)
	}
	return out
}

// Views отрисовывает все виджеты.
func (b *Board) Views(now time.Time) []View {
	views := make([]View, 0, len(b.names))
	for _, name := range b.names {
		e := b.widgets[name]
		views = append(views, Render(e.presenter.Snapshot(), e.display, now))
	}
	return views
}

// View отрисовывает виджет по имени.
func (b *Board) View(name string, now time.Time) (View, bool) {
	e, ok := b.widgets[name]
	if !ok {
		return View{}, false
	}
	return Render(e.presenter.Snapshot(), e.display, now), true
}

// Refresh запрашивает внеочередное обновление виджета.
func (b *Board) Refresh(name string) bool {
	e, ok := b.widgets[name]
	if !ok {
		return false
	}
	e.presenter.RequestRefresh()
	return true
}

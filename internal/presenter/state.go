package presenter

import "gmailfeed/internal/domain"

// State состояние виджета: Uninitialized, Loaded или Errored.
// Виджет всегда находится ровно в одном из них.
type State interface {
	Name() string
	isState()
}

// Uninitialized начальное состояние, ответа от Fetcher-а еще не было.
type Uninitialized struct{}

// Loaded последний успешный результат.
type Loaded struct {
	Result *domain.FeedResult
}

// Errored последняя ошибка.
type Errored struct {
	Err *domain.FetchError
}

func (Uninitialized) Name() string { return "loading" }
func (Loaded) Name() string        { return "loaded" }
func (Errored) Name() string       { return "error" }

func (Uninitialized) isState() {}
func (Loaded) isState()        {}
func (Errored) isState()       {}

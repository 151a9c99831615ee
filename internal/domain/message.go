package domain

import "time"

// Request запрос Presenter-а к Fetcher-у. Options передаются насквозь
// и Fetcher их не интерпретирует. WidgetID и Seq возвращаются в ответе без изменений.
type Request struct {
	WidgetID uint64
	Username string
	Password string
	MaxItems int
	Seq      uint64
	Options  map[string]any
}

// Credentials возвращает учетные данные запроса.
func (r Request) Credentials() Credentials {
	return Credentials{Username: r.Username, Password: r.Password}
}

// Response ответ Fetcher-а. Заполнено ровно одно из Data и Err.
// Ответ получают все виджеты аккаунта Username; WidgetID указывает, чей это был запрос.
type Response struct {
	WidgetID uint64
	Username string
	Seq      uint64
	Data     *FeedResult
	Err      *FetchError
}

// FetchOutcome запись журнала о результате одной попытки получить ленту.
type FetchOutcome struct {
	Account    string    `json:"account"`
	FetchedAt  time.Time `json:"fetched_at"`
	Outcome    string    `json:"outcome"`
	StatusCode *int      `json:"status,omitempty"`
	FullCount  string    `json:"fullcount,omitempty"`
	Entries    int       `json:"entries"`
	Message    string    `json:"message,omitempty"`
}

// OutcomeOK значение Outcome для успешной попытки; для неудачных используется ErrorKind.
const OutcomeOK = "ok"

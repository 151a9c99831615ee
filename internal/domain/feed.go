package domain

import (
	"strconv"
	"strings"
	"time"
)

// DefaultFeedURL адрес Atom-ленты непрочитанных писем Gmail.
const DefaultFeedURL = "https://mail.google.com/mail/feed/atom"

// Credentials содержит учетные данные почтового ящика для Basic-аутентификации.
type Credentials struct {
	Username string
	Password string
}

// Valid сообщает, заполнены ли оба поля после обрезки пробелов.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.Username) != "" && strings.TrimSpace(c.Password) != ""
}

// FeedEntry представляет одно непрочитанное письмо из ленты.
type FeedEntry struct {
	Author   string    `json:"author"`
	Subject  string    `json:"subject"`
	IssuedAt time.Time `json:"issued_at"`
}

// FeedResult представляет разобранную ленту, обрезанную до maxItems записей.
// FullCount хранится как текст, в том виде, в котором пришел от сервера.
type FeedResult struct {
	Title     string      `json:"title"`
	FullCount string      `json:"fullcount"`
	Entries   []FeedEntry `json:"entries"`
}

// Count разбирает FullCount как число. Пустое или нечисловое значение дает ok=false.
func (r *FeedResult) Count() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(r.FullCount))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Empty сообщает, что сервер не сообщил ни одного непрочитанного письма.
func (r *FeedResult) Empty() bool {
	return r.FullCount == "0"
}

// Truncated возвращает результат не более чем с n записями. Исходный результат
// не изменяется: при обрезке возвращается копия.
func (r *FeedResult) Truncated(n int) *FeedResult {
	if n < 0 {
		n = 0
	}
	if len(r.Entries) <= n {
		return r
	}
	out := *r
	out.Entries = make([]FeedEntry, n)
	copy(out.Entries, r.Entries)
	return &out
}

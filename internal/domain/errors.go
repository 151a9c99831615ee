package domain

import "fmt"

// ErrorKind различает источник ошибки получения ленты.
type ErrorKind string

const (
	KindConfig    ErrorKind = "config"
	KindTransport ErrorKind = "transport"
	KindParse     ErrorKind = "parse"
)

// ConfigIncompleteMessage показывается, когда не заданы логин или пароль.
const ConfigIncompleteMessage = "Configuration incomplete: username or password (App Password) is missing."

// FetchError описывает неудачную попытку получить ленту.
// StatusCode задан для HTTP-ошибок и для ошибки конфигурации (значение 0),
// и отсутствует для ошибок разбора и сетевых ошибок.
type FetchError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode *int      `json:"status,omitempty"`
}

func (e *FetchError) Error() string {
	if e.StatusCode != nil {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, *e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Status возвращает код статуса и признак его наличия.
func (e *FetchError) Status() (int, bool) {
	if e.StatusCode == nil {
		return 0, false
	}
	return *e.StatusCode, true
}

// NewConfigError создает ошибку неполной конфигурации со статусом-маркером 0.
func NewConfigError() *FetchError {
	code := 0
	return &FetchError{Kind: KindConfig, Message: ConfigIncompleteMessage, StatusCode: &code}
}

// NewStatusError создает транспортную ошибку для ответа с кодом вне 2xx.
func NewStatusError(code int) *FetchError {
	return &FetchError{
		Kind:       KindTransport,
		Message:    fmt.Sprintf("error fetching feed: %d", code),
		StatusCode: &code,
	}
}

// NewTransportError создает транспортную ошибку без кода статуса (сеть, DNS, чтение тела).
func NewTransportError(err error) *FetchError {
	return &FetchError{Kind: KindTransport, Message: err.Error()}
}

// NewParseError создает ошибку разбора XML с диагностикой парсера.
func NewParseError(err error) *FetchError {
	return &FetchError{Kind: KindParse, Message: err.Error()}
}

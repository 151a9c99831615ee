package widget

import (
	"time"

	"gmailfeed/internal/domain"
	"gmailfeed/internal/presenter"
)

const (
	ModeTable        = "table"
	ModeNotification = "notification"

	defaultHeader   = "GmailFeed"
	inboxHeader     = "GMAIL INBOX"
	loadingMessage  = "Loading..."
	noMailMessage   = "No New Mail"
	genericError    = "An error occurred"
	authFailedError = "Authentication failed (401). Check username/password or App Password."

	dateLayout = "Jan 02 - "
	timeLayout = "3:04 pm"
)

// Display настройки отображения виджета. Ядро их не интерпретирует,
// они только возвращаются вместе с представлением.
type Display struct {
	MaxSubjectLength         int    `json:"max_subject_length"`
	MaxFromLength            int    `json:"max_from_length"`
	AutoHide                 bool   `json:"auto_hide"`
	DisplayMode              string `json:"display_mode"`
	Color                    bool   `json:"color"`
	ShowEmailAddressInHeader bool   `json:"show_email_address_in_header"`
	PlaySound                bool   `json:"play_sound"`
}

// View готовое к показу представление виджета.
type View struct {
	Name    string             `json:"name"`
	Account string             `json:"account"`
	State   string             `json:"state"`
	Header  string             `json:"header"`
	Message string             `json:"message,omitempty"`
	Hidden  bool               `json:"hidden"`
	Rows    []Row              `json:"rows,omitempty"`
	Badge   *Badge             `json:"badge,omitempty"`
	Chime   bool               `json:"chime"`
	Error   *domain.FetchError `json:"error,omitempty"`
	Display Display            `json:"display"`
}

// Row строка таблицы писем.
type Row struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Badge значок с числом непрочитанных для режима notification.
type Badge struct {
	Count string `json:"count"`
	Logo  string `json:"logo"`
}

// Render строит представление по снимку состояния. now задает текущий день
// и часовой пояс для форматирования времени писем.
func Render(s presenter.Snapshot, d Display, now time.Time) View {
	if d.DisplayMode == "" {
		d.DisplayMode = ModeTable
	}
	v := View{
		Name:    s.Name,
		Account: s.Account,
		State:   s.State.Name(),
		Header:  defaultHeader,
		Display: d,
	}
	switch st := s.State.(type) {
	case presenter.Errored:
		v.Error = st.Err
		v.Message = errorMessage(st.Err)
	case presenter.Loaded:
		v.Chime = s.Chime && d.PlaySound
		renderLoaded(&v, s, st.Result, d, now)
	default:
		v.Message = loadingMessage
	}
	return v
}

func renderLoaded(v *View, s presenter.Snapshot, r *domain.FeedResult, d Display, now time.Time) {
	hide := r.Empty() && d.AutoHide
	switch d.DisplayMode {
	case ModeNotification:
		v.Header = ""
		logo := "grayscale"
		if d.Color {
			logo = "color"
		}
		v.Badge = &Badge{Count: r.FullCount, Logo: logo}
	default:
		switch {
		case hide:
			v.Header = ""
		case d.ShowEmailAddressInHeader:
			title := r.Title
			if title == "" {
				title = s.Account
			}
			v.Header = title + "  -  " + r.FullCount
		default:
			v.Header = inboxHeader + "  -  " + r.FullCount
		}
		if len(r.Entries) == 0 {
			v.Message = noMailMessage
		}
		v.Rows = make([]Row, 0, len(r.Entries))
		for _, e := range r.Entries {
			v.Rows = append(v.Rows, renderRow(e, d, now))
		}
	}
	v.Hidden = hide
}

func renderRow(e domain.FeedEntry, d Display, now time.Time) Row {
	issued := e.IssuedAt.In(now.Location())
	row := Row{
		From:    truncate(e.Author, d.MaxFromLength),
		Subject: truncate(e.Subject, d.MaxSubjectLength),
		Time:    issued.Format(timeLayout),
	}
	if !sameDay(issued, now) {
		row.Date = issued.Format(dateLayout)
	}
	return row
}

func errorMessage(err *domain.FetchError) string {
	if status, ok := err.Status(); ok && status == 401 {
		return authFailedError
	}
	if err.Message == "" {
		return genericError
	}
	return err.Message
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// truncate оставляет первые n символов строки; отрицательное n дает пустую строку.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

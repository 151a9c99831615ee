package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gmailfeed/internal/domain"
)

type AtomParser struct {
	log *slog.Logger
}

func NewAtomParser(log *slog.Logger) *AtomParser {
	return &AtomParser{
		log: log,
	}
}

// Parse разбирает Atom-ленту непрочитанных писем и оставляет первые maxItems записей.
// Ошибки разбора возвращаются как *domain.FetchError вида KindParse.
func (p *AtomParser) Parse(ctx context.Context, body []byte, maxItems int) (*domain.FeedResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := ParseTree(bytes.NewReader(body))
	if err != nil {
		p.log.Error(
			"Error decoding XML",
			slog.Any("error", err),
		)
		return nil, domain.NewParseError(err)
	}
	if root.Name != "feed" {
		err := fmt.Errorf("unexpected root element <%s>, want <feed>", root.Name)
		p.log.Error("Error decoding XML", slog.Any("error", err))
		return nil, domain.NewParseError(err)
	}
	raw := root.Children("entry")
	if maxItems < 0 {
		maxItems = 0
	}
	if len(raw) > maxItems {
		raw = raw[:maxItems]
	}
	result := &domain.FeedResult{
		Title:     root.ChildText("title"),
		FullCount: root.ChildText("fullcount"),
		Entries:   make([]domain.FeedEntry, 0, len(raw)),
	}
	for _, e := range raw {
		entry, err := mapEntry(e)
		if err != nil {
			p.log.Warn(
				"could not map feed entry, skipping entry",
				slog.String("entry_title", e.ChildText("title")),
				slog.Any("error", err),
			)
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

// ParseReader читает тело целиком и передает его в Parse.
func (p *AtomParser) ParseReader(ctx context.Context, r io.Reader, maxItems int) (*domain.FeedResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to read body: %w", err))
	}
	return p.Parse(ctx, body, maxItems)
}

func mapEntry(e *Node) (domain.FeedEntry, error) {
	author := e.ChildText("author", "name")
	if author == "" {
		author = e.ChildText("author", "email")
	}
	if author == "" {
		return domain.FeedEntry{}, fmt.Errorf("entry has no author")
	}
	raw := e.ChildText("issued")
	for _, alt := range []string{"modified", "updated"} {
		if raw != "" {
			break
		}
		raw = e.ChildText(alt)
	}
	issued, err := parseIssued(raw)
	if err != nil {
		return domain.FeedEntry{}, err
	}
	return domain.FeedEntry{
		Author:   author,
		Subject:  e.ChildText("title"),
		IssuedAt: issued,
	}, nil
}

// parseIssued разбирает дату записи в одном из известных форматов.
func parseIssued(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		time.RFC1123Z,
		time.RFC1123,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, strings.TrimSpace(dateStr)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date in any known format: %q", dateStr)
}

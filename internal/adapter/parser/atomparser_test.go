package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"gmailfeed/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gmailFeed(fullcount string, n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed version="0.3" xmlns="http://purl.org/atom/ns#">
<title>Gmail - Inbox for alice@example.com</title>
<tagline>New messages in your Gmail Inbox</tagline>
<fullcount>` + fullcount + `</fullcount>
<modified>2024-03-05T10:00:00Z</modified>
`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<entry>
<title>  Subject %d  </title>
<summary>summary %d</summary>
<issued>2024-03-05T09:%02d:00Z</issued>
<author><name>Sender %d</name><email>sender%d@example.com</email></author>
</entry>
`, i, i, i, i, i)
	}
	b.WriteString(`</feed>`)
	return b.String()
}

func newTestParser() *AtomParser {
	return NewAtomParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAtomParser_Parse_Success(t *testing.T) {
	parser := newTestParser()

	result, err := parser.Parse(context.Background(), []byte(gmailFeed("2", 2)), 5)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Gmail - Inbox for alice@example.com", result.Title)
	assert.Equal(t, "2", result.FullCount)
	require.Len(t, result.Entries, 2)

	assert.Equal(t, "Sender 1", result.Entries[0].Author)
	assert.Equal(t, "Subject 1", result.Entries[0].Subject)
	assert.WithinDuration(t, time.Date(2024, 3, 5, 9, 1, 0, 0, time.UTC), result.Entries[0].IssuedAt, time.Second)
	assert.Equal(t, "Sender 2", result.Entries[1].Author)
}

func TestAtomParser_Parse_TruncatesInFeedOrder(t *testing.T) {
	parser := newTestParser()

	result, err := parser.Parse(context.Background(), []byte(gmailFeed("8", 8)), 5)

	require.NoError(t, err)
	assert.Equal(t, "8", result.FullCount)
	require.Len(t, result.Entries, 5)
	for i, e := range result.Entries {
		assert.Equal(t, fmt.Sprintf("Subject %d", i+1), e.Subject)
	}
}

func TestAtomParser_Parse_EntriesNeverExceedMaxItems(t *testing.T) {
	parser := newTestParser()
	for _, n := range []int{0, 1, 3, 7} {
		for _, max := range []int{0, 1, 2, 5, 10} {
			result, err := parser.Parse(context.Background(), []byte(gmailFeed(fmt.Sprint(n), n)), max)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(result.Entries), max, "entries=%d max=%d", n, max)
			assert.Len(t, result.Entries, min(n, max))
		}
	}
}

func TestAtomParser_Parse_SingleEntry(t *testing.T) {
	parser := newTestParser()

	single, err := parser.Parse(context.Background(), []byte(gmailFeed("1", 1)), 5)
	require.NoError(t, err)
	many, err := parser.Parse(context.Background(), []byte(gmailFeed("2", 2)), 5)
	require.NoError(t, err)

	require.Len(t, single.Entries, 1)
	assert.Equal(t, many.Entries[0], single.Entries[0])
}

func TestAtomParser_Parse_NoEntries(t *testing.T) {
	parser := newTestParser()

	result, err := parser.Parse(context.Background(), []byte(gmailFeed("0", 0)), 5)

	require.NoError(t, err)
	require.NotNil(t, result.Entries)
	assert.Empty(t, result.Entries)
	assert.True(t, result.Empty())
}

func TestAtomParser_Parse_InvalidXML(t *testing.T) {
	parser := newTestParser()
	invalidXML := `
	<feed>
	<title>Inbox</title>
	<entry>
	</feed>`

	result, err := parser.Parse(context.Background(), []byte(invalidXML), 5)

	assert.Nil(t, result)
	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, domain.KindParse, fetchErr.Kind)
	assert.Nil(t, fetchErr.StatusCode)
	assert.NotEmpty(t, fetchErr.Message)
}

func TestAtomParser_Parse_TruncatedDocument(t *testing.T) {
	parser := newTestParser()

	_, err := parser.Parse(context.Background(), []byte(`<feed><title>Inbox`), 5)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, domain.KindParse, fetchErr.Kind)
}

func TestAtomParser_Parse_WrongRoot(t *testing.T) {
	parser := newTestParser()

	_, err := parser.Parse(context.Background(), []byte(`<rss><channel/></rss>`), 5)

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, domain.KindParse, fetchErr.Kind)
	assert.Contains(t, fetchErr.Message, "rss")
}

func TestAtomParser_Parse_SkipsMalformedEntries(t *testing.T) {
	parser := newTestParser()
	xmlData := `<feed>
	<fullcount>3</fullcount>
	<entry><title>no author</title><issued>2024-03-05T09:00:00Z</issued></entry>
	<entry><title>bad date</title><issued>yesterday</issued><author><name>Bob</name></author></entry>
	<entry><title>ok</title><issued>2024-03-05T09:00:00Z</issued><author><name>Carol</name></author></entry>
	</feed>`

	result, err := parser.Parse(context.Background(), []byte(xmlData), 5)

	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Carol", result.Entries[0].Author)
	assert.Equal(t, "3", result.FullCount)
}

func TestAtomParser_Parse_ContextCancelled(t *testing.T) {
	parser := newTestParser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := parser.Parse(ctx, []byte(gmailFeed("1", 1)), 5)

	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, result)
}

func TestAtomParser_ParseReader(t *testing.T) {
	parser := newTestParser()

	result, err := parser.ParseReader(context.Background(), strings.NewReader(gmailFeed("1", 1)), 5)

	require.NoError(t, err)
	assert.Len(t, result.Entries, 1)
}

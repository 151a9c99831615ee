package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gmailfeed/internal/domain"
	"gmailfeed/internal/presenter"
	"gmailfeed/internal/widget"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRequester struct {
	mu    sync.Mutex
	count int
}

func (c *countingRequester) Send(domain.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

type fakeHistory struct {
	outcomes []domain.FetchOutcome
	err      error
	limit    int
}

func (f *fakeHistory) GetHistory(_ context.Context, limit int) ([]domain.FetchOutcome, error) {
	f.limit = limit
	return f.outcomes, f.err
}

func newTestServer(t *testing.T, history HistoryGetter) (http.Handler, *presenter.Presenter, *countingRequester) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := &countingRequester{}
	p := presenter.New(presenter.Config{
		Name:           "work",
		Credentials:    domain.Credentials{Username: "bob", Password: "pw"},
		UpdateInterval: time.Minute,
		MaxItems:       5,
	}, req, logger)
	board := widget.NewBoard()
	board.Add(p, widget.Display{DisplayMode: widget.ModeTable, MaxFromLength: 15, MaxSubjectLength: 40})
	return NewServer(logger, NewHandler(logger, board, history)), p, req
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ListWidgets(t *testing.T) {
	srv, p, _ := newTestServer(t, nil)
	p.HandleResponse(domain.Response{Username: "bob", Err: domain.NewStatusError(401)})

	rec := do(t, srv, http.MethodGet, "/api/widgets")

	require.Equal(t, http.StatusOK, rec.Code)
	var views []widget.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "work", views[0].Name)
	assert.Equal(t, "error", views[0].State)
	assert.Contains(t, views[0].Message, "Authentication failed")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestServer_GetWidget(t *testing.T) {
	srv, p, _ := newTestServer(t, nil)
	p.HandleResponse(domain.Response{Username: "bob", Data: &domain.FeedResult{
		Title:     "Inbox",
		FullCount: "1",
		Entries:   []domain.FeedEntry{{Author: "Carol", Subject: "Lunch?", IssuedAt: time.Now()}},
	}})

	rec := do(t, srv, http.MethodGet, "/api/widgets/work")

	require.Equal(t, http.StatusOK, rec.Code)
	var view widget.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "loaded", view.State)
	assert.Equal(t, "Inbox  -  1", view.Header)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "Carol", view.Rows[0].From)

	rec = do(t, srv, http.MethodGet, "/api/widgets/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Refresh(t *testing.T) {
	srv, _, req := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/widgets/work/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, req.count)

	rec = do(t, srv, http.MethodPost, "/api/widgets/missing/refresh")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/widgets/work/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_History(t *testing.T) {
	history := &fakeHistory{outcomes: []domain.FetchOutcome{{Account: "bob", Outcome: domain.OutcomeOK, Entries: 2}}}
	srv, _, _ := newTestServer(t, history)

	rec := do(t, srv, http.MethodGet, "/api/history?limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, history.limit)
	var outcomes []domain.FetchOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcomes))
	require.Len(t, outcomes, 1)
	assert.Equal(t, "bob", outcomes[0].Account)

	rec = do(t, srv, http.MethodGet, "/api/history?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	history.err = errors.New("db down")
	rec = do(t, srv, http.MethodGet, "/api/history")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_HistoryDisabled(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/history")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodOptions, "/api/widgets")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

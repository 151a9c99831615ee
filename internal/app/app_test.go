package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gmailfeed/internal/config"
	"gmailfeed/internal/widget"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inbox = `<?xml version="1.0" encoding="UTF-8"?>
<feed version="0.3" xmlns="http://purl.org/atom/ns#">
  <title>Gmail - Inbox for alice@example.com</title>
  <fullcount>2</fullcount>
  <entry>
    <title>Quarterly report</title>
    <issued>2024-03-05T09:15:00Z</issued>
    <author><name>Bob Builder</name><email>bob@example.com</email></author>
  </entry>
  <entry>
    <title>Lunch?</title>
    <issued>2024-03-05T08:00:00Z</issued>
    <author><name>Carol</name><email>carol@example.com</email></author>
  </entry>
</feed>`

func newTestApp(t *testing.T, address string) *App {
	t.Helper()
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice@example.com" || pass != "app-password" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, inbox)
	}))
	t.Cleanup(feed.Close)

	cfg := config.New()
	cfg.Server.Address = address
	cfg.Feed.URL = feed.URL
	cfg.Widgets = []config.WidgetConfig{
		{Name: "alice", Username: "alice@example.com", Password: "app-password", UpdateInterval: "1h"},
		{Name: "wrong", Username: "mallory@example.com", Password: "nope", UpdateInterval: "1h"},
		{Name: "empty", UpdateInterval: "1h"},
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	a, err := NewWithLogger(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return a
}

func TestApp_RunServesWidgetViews(t *testing.T) {
	a := newTestApp(t, "127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		v, ok := a.Board().View("alice", time.Now())
		return ok && v.State == "loaded"
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + a.Addr().String() + "/api/widgets/alice")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view widget.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "Gmail - Inbox for alice@example.com  -  2", view.Header)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "Bob Builder", view.Rows[0].From)
	assert.Equal(t, "Quarterly report", view.Rows[0].Subject)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_WidgetErrorsAreIndependent(t *testing.T) {
	a := newTestApp(t, "127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		v, ok := a.Board().View("wrong", time.Now())
		return ok && v.State == "error"
	}, 5*time.Second, 10*time.Millisecond)

	wrong, _ := a.Board().View("wrong", time.Now())
	assert.Equal(t, "Authentication failed (401). Check username/password or App Password.", wrong.Message)

	empty, ok := a.Board().View("empty", time.Now())
	require.True(t, ok)
	assert.Equal(t, "error", empty.State)
	assert.Equal(t, "Configuration incomplete: username or password (App Password) is missing.", empty.Message)

	cancel()
	<-done
}

func TestApp_RunFailsWhenAddressBusy(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	a := newTestApp(t, busy.Addr().String())

	err = a.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create listener")
	addr := make(chan net.Addr, 1)
	go func() { addr <- a.Addr() }()
	select {
	case got := <-addr:
		assert.Nil(t, got)
	case <-time.After(time.Second):
		t.Fatal("Addr blocked after failed Run")
	}
}

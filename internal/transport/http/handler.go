package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"gmailfeed/internal/domain"
	"gmailfeed/internal/widget"
)

type widgetBoard interface {
	Views(now time.Time) []widget.View
	View(name string, now time.Time) (widget.View, bool)
	Refresh(name string) bool
}

// HistoryGetter отдает записи журнала попыток. nil означает, что журнал выключен.
type HistoryGetter interface {
	GetHistory(ctx context.Context, limit int) ([]domain.FetchOutcome, error)
}

type Handler struct {
	log     *slog.Logger
	board   widgetBoard
	history HistoryGetter
	now     func() time.Time
}

// NewHandler создает обработчики API. history может быть nil, если журнал выключен.
func NewHandler(log *slog.Logger, board widgetBoard, history HistoryGetter) *Handler {
	return &Handler{
		log:     log,
		board:   board,
		history: history,
		now:     time.Now,
	}
}

// listWidgets - хендлер для эндпоинта GET /api/widgets
func (h *Handler) listWidgets(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.board.Views(h.now()))
}

// getWidget - хендлер для эндпоинта GET /api/widgets/{name}
func (h *Handler) getWidget(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	view, ok := h.board.View(name, h.now())
	if !ok {
		respondWithError(w, http.StatusNotFound, "Widget not found")
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// refreshWidget - хендлер для эндпоинта POST /api/widgets/{name}/refresh
func (h *Handler) refreshWidget(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/refreshWidget"
	name := r.PathValue("name")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
		slog.String("widget", name),
	)
	if !h.board.Refresh(name) {
		log.Warn("unknown widget")
		respondWithError(w, http.StatusNotFound, "Widget not found")
		return
	}
	log.Info("refresh requested")
	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

// getHistory - хендлер для эндпоинта GET /api/history
func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getHistory"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if h.history == nil {
		respondWithError(w, http.StatusNotFound, "Fetch journal is disabled")
		return
	}
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
	}
	outcomes, err := h.history.GetHistory(r.Context(), limit)
	if err != nil {
		log.Error("Failed to get history", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respondWithJSON(w, http.StatusOK, outcomes)
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

type requestIDKey struct{}

var requestCounter atomic.Uint64

func withRequestID(ctx context.Context) context.Context {
	id := "req-" + time.Now().Format("20060102150405") + "-" + strconv.FormatUint(requestCounter.Add(1), 10)
	return context.WithValue(ctx, requestIDKey{}, id)
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return "req-" + time.Now().Format("20060102150405")
}

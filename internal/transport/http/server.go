package http

import (
	"log/slog"
	"net/http"
)

// NewServer создает HTTP-обработчик с роутингом API виджетов и middleware
// для логирования и CORS.
func NewServer(log *slog.Logger, h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.healthCheck)
	mux.HandleFunc("GET /api/widgets", h.listWidgets)
	mux.HandleFunc("GET /api/widgets/{name}", h.getWidget)
	mux.HandleFunc("POST /api/widgets/{name}/refresh", h.refreshWidget)
	mux.HandleFunc("GET /api/history", h.getHistory)
	var handler http.Handler = mux
	handler = loggingMiddleware(log)(handler)
	handler = corsMiddleware()(handler)
	return handler
}

package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"bizinsights/internal/config"
	"bizinsights/internal/infrastructure"
)

// Handler upgrades HTTP requests and attaches the connection to a hub.
type Handler struct {
	hub      *Hub
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler builds the upgrade handler. Requests without an Origin header
// are accepted; otherwise the origin must be listed in allowedOrigins, or
// allowedOrigins must contain "*".
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "websocket.handler")

	h := &Handler{hub: hub, cfg: cfg, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			logger.WarnContext(r.Context(), "WebSocket origin not allowed",
				slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.metrics.RecordUpgradeError(ctx)
		return
	}

	client := NewClient(h.hub, WrapConn(conn), infrastructure.GetTraceID(ctx), h.cfg, h.logger)
	h.hub.Register(client)

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	go client.WritePump()
	go client.ReadPump()
}

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"aegis/internal/agents"
	"aegis/internal/metrics"
	"aegis/pkg/logger"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// StatusStreamHandler pushes the engine's real-time snapshot to dashboard
// clients over WebSocket at a fixed interval.
type StatusStreamHandler struct {
	engine   *agents.Engine
	interval time.Duration
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewStatusStreamHandler creates the stream handler.
func NewStatusStreamHandler(engine *agents.Engine, interval time.Duration, log *logger.Logger) *StatusStreamHandler {
	return &StatusStreamHandler{
		engine:   engine,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Dashboard origins are not restricted; the stream is read-only.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeHTTP upgrades the connection and streams snapshots until the
// client disconnects.
func (h *StatusStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	metrics.StatusStreamClients.Inc()
	defer metrics.StatusStreamClients.Dec()
	h.log.Infof("Status stream client connected: %s", r.RemoteAddr)

	// Reader goroutine: drain control frames, signal disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	pinger := time.NewTicker(wsPingInterval)
	defer pinger.Stop()

	for {
		select {
		case <-done:
			h.log.Infof("Status stream client disconnected: %s", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(h.engine.RealTimeStatus()); err != nil {
				h.log.Warnf("Status stream write failed: %v", err)
				return
			}
		}
	}
}

package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// statePayload is the summary pushed to websocket clients on every feed tick.
type statePayload struct {
	Running   bool        `json:"running"`
	Stats     interface{} `json:"stats"`
	Bots      interface{} `json:"bots"`
	Market    interface{} `json:"market"`
	Decisions interface{} `json:"decisions"`
	Timestamp time.Time   `json:"timestamp"`
}

// handleStateFeed upgrades the connection and pushes a state summary until the
// client goes away.
func (s *Server) handleStateFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	s.logger.Info("State feed client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Drain incoming frames so close/ping handling works.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.feedInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			payload := statePayload{
				Running:   s.scheduler.Running(),
				Stats:     s.store.Stats(),
				Bots:      s.store.Bots(),
				Market:    s.store.MarketData(),
				Decisions: s.store.Decisions(10),
				Timestamp: time.Now(),
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(payload); err != nil {
				s.logger.Debug("State feed client dropped", zap.Error(err))
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

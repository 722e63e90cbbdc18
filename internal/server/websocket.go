package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades to WebSocket, sends the latest report (if any)
// and then every new report as JSON.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	reports := s.hub.Subscribe()
	defer s.hub.Unsubscribe(reports)

	// Read pump: detect client disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if r, ok := s.aggregator.Latest(); ok {
		if err := conn.WriteJSON(r); err != nil {
			s.log.WithError(err).Debug("websocket write failed")
			return
		}
	}

	// Write pump.
	for {
		select {
		case <-gone:
			return
		case r, ok := <-reports:
			if !ok {
				return
			}
			if err := conn.WriteJSON(r); err != nil {
				s.log.WithError(err).Debug("websocket write failed")
				return
			}
		}
	}
}

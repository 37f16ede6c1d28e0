package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"civicwatch/broadcast"
	ws "civicwatch/websocket"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The leaderboard feed is public, read-only data.
		return true
	},
}

// WebSocketHandler serves the websocket mirror of the leaderboard stream
type WebSocketHandler struct {
	hub *broadcast.Hub
}

func NewWebSocketHandler(hub *broadcast.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ListenLeaderboard handles GET /ws/leaderboard
func (h *WebSocketHandler) ListenLeaderboard(c *gin.Context) {
	id, frames, err := h.hub.Subscribe(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("Failed to upgrade connection to websocket: %v", err)
		h.hub.Unsubscribe(id)
		return
	}

	client := ws.NewClient(h.hub, id, conn, frames)
	go client.WritePump()
	go client.ReadPump()

	log.Infof("Websocket leaderboard feed established for subscriber %d", id)
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"civicwatch/broadcast"
	"civicwatch/models"
	"civicwatch/services"
)

// LeaderboardHandler serves the leaderboard query and stream endpoints
type LeaderboardHandler struct {
	leaderboard *services.LeaderboardService
	hub         *broadcast.Hub
}

func NewLeaderboardHandler(leaderboard *services.LeaderboardService, hub *broadcast.Hub) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboard: leaderboard,
		hub:         hub,
	}
}

// GetLeaderboard handles GET /api/leaderboard?limit=N.
// A non-numeric or out-of-range limit is clamped, never rejected.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = services.DefaultLimit
	}

	aggregates, err := h.leaderboard.ComputeLeaderboard(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("Leaderboard aggregation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, models.LeaderboardResponse{Data: aggregates})
}

// StreamLeaderboard handles GET /api/leaderboard/stream as a server-sent
// event stream. The first frame is the current snapshot; every broadcast
// pushes one more full snapshot. The connection is held open until the
// client goes away.
func (h *LeaderboardHandler) StreamLeaderboard(c *gin.Context) {
	id, frames, err := h.hub.Subscribe(c.Request.Context())
	if err != nil {
		// No channel without data: end the request instead of opening
		// an empty stream.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	defer h.hub.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				// Hub evicted us (slow consumer); nothing more to send.
				return
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", frame); err != nil {
				return
			}
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

// Health handles GET /health with live hub statistics
func (h *LeaderboardHandler) Health(c *gin.Context) {
	clients, lastSeq := h.hub.Stats()

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		Service:          "civicwatch",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: clients,
		LastBroadcastSeq: lastSeq,
	})
}

package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"haul/internal/middleware"
	"haul/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Auth happens via the bearer token, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamHandler pushes live dispatch-queue snapshots to connected drivers.
type StreamHandler struct {
	dispatch *service.DispatchService
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(dispatch *service.DispatchService) *StreamHandler {
	return &StreamHandler{dispatch: dispatch}
}

// QueueSnapshotMessage is one websocket frame: a full replacement snapshot
// of the pending queue as this driver sees it.
type QueueSnapshotMessage struct {
	Pending []BookingResponse `json:"pending"`
}

// StreamPending handles GET /v1/drivers/queue/stream
//
// Each frame is authoritative; the client replaces its prior view rather
// than applying diffs, so a dropped frame costs staleness, not corruption.
func (h *StreamHandler) StreamPending(c *gin.Context) {
	session := middleware.SessionFrom(c)

	watch, err := h.dispatch.WatchPending(c.Request.Context(), session.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		watch.Close()
		return
	}
	defer conn.Close()
	defer watch.Close()

	// Drain reads so close frames and pongs are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-watch.Snapshots():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(QueueSnapshotMessage{Pending: queueViews(snapshot)}); err != nil {
				log.Printf("queue stream: driver %s write failed: %v", session.ActorID, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

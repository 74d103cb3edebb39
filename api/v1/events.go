package v1

import (
	"log"
	"net/http"

	"elapor/internal/notify"
	"elapor/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// EventsHandler live roster and cooldown updates over WebSocket
type EventsHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

// NewEventsHandler creates the events handler. An empty allowedOrigins
// accepts any origin.
func NewEventsHandler(hub *notify.Hub, allowedOrigins []string) *EventsHandler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Subscribe upgrades the connection and registers it with the hub
func (h *EventsHandler) Subscribe(c *gin.Context) {
	claims := middleware.MustGetUserFromContext(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WARN] [Notify] WebSocket upgrade failed for %s: %v", claims.UserID, err)
		return
	}
	h.hub.Register(conn, claims.UserID)
}

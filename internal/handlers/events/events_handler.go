// internal/handlers/events/events_handler.go
package events

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"jobboard-service/internal/middleware"
	"jobboard-service/internal/pkg/response"
	ws "jobboard-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type EventsHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewEventsHandler accepts upgrades from the API's own origin and from
// allowedOrigins. Requests without an Origin header are not from a browser
// and are accepted.
func NewEventsHandler(hub *ws.Hub, allowedOrigins []string, logger *zap.Logger) *EventsHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && strings.EqualFold(u.Host, r.Host)
			},
		},
		logger: logger,
	}
}

// Stream upgrades an admin's request to the live security event feed.
func (h *EventsHandler) Stream(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.logger.Warn("event stream upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	h.hub.Serve(conn, principal)
}

// Stats reports how many consoles are attached.
func (h *EventsHandler) Stats(c *gin.Context) {
	response.Success(c, http.StatusOK, "event stream stats", gin.H{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now().UTC(),
	})
}

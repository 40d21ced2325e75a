// internal/handlers/websocket/websocket.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"mohandz-service/internal/middleware"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/pkg/response"
	ws "mohandz-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts upgrades from the given origins; "*" allows
// any origin.
func NewWebSocketHandler(hub *ws.Hub, origins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		logger: logger,
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] {
			return true
		}
		return allowed[origin]
	}
}

// HandleConnection upgrades a signed-in tab. It must sit behind the session
// middleware and a session guard; it blocks until the socket closes so the
// request's session store lives as long as the connection.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	store, ok := middleware.CurrentStore(c)
	tab, hasTab := middleware.CurrentClient(c)
	snap := middleware.CurrentSnapshot(c)
	if !ok || !hasTab || !snap.Authenticated() {
		response.Unauthorized(c, i18n.T(middleware.Lang(c), i18n.LoginRequired))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, ws.ClientAuth{
		IdentityID: snap.Identity.ID,
		Email:      snap.Identity.Email,
		Lang:       middleware.Lang(c),
		Session:    store,
		Tab:        tab,
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	h.hub.Register <- client

	go client.WritePump()
	go func() {
		if err := tab.Listen(ctx); err != nil {
			h.logger.Warn("auth event listener stopped", zap.Error(err))
		}
	}()
	go client.FollowSession(store.Watch(ctx))

	client.ReadPump()
}

// GetStats returns WebSocket connection statistics (admin only)
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"total_connections": h.hub.ClientCount(),
		"timestamp":         time.Now(),
	}

	response.Success(c, http.StatusOK, "WebSocket stats", stats)
}

// internal/websocket/handler/session.go
package handler

import (
	"context"
	"fmt"

	wstypes "mohandz-service/internal/domain/websocket"
	ws "mohandz-service/internal/websocket"

	"go.uber.org/zap"
)

// SessionHandler answers session queries coming from a tab.
type SessionHandler struct {
	logger *zap.Logger
}

func NewSessionHandler(logger *zap.Logger) *SessionHandler {
	return &SessionHandler{logger: logger}
}

// SupportedEvents returns events this handler supports
func (h *SessionHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeSessionGet,
		wstypes.EventTypeSessionRefresh,
	}
}

// HandleMessage routes session events
func (h *SessionHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeSessionGet:
		client.SendMessage(wstypes.NewMessage(wstypes.EventTypeSessionChanged, client.Session().View()))
		return nil
	case wstypes.EventTypeSessionRefresh:
		return h.handleRefresh(ctx, client)
	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}
}

// handleRefresh issues a new token for the tab. The store picks up the
// resulting TOKEN_REFRESHED event and pushes session:changed on its own.
func (h *SessionHandler) handleRefresh(ctx context.Context, client *ws.Client) error {
	tab := client.Tab()
	if tab == nil {
		return ws.ErrNoTabSession
	}

	sess, err := tab.RefreshSession(ctx)
	if err != nil {
		h.logger.Warn("session refresh failed",
			zap.String("identity_id", client.GetIdentityID().String()),
			zap.Error(err),
		)
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeSessionRefresh, map[string]interface{}{
		"access_token": sess.AccessToken,
		"expires_at":   sess.ExpiresAt,
	}))
	return nil
}

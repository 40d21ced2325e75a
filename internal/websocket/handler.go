// internal/websocket/handler.go
package websocket

import (
	"context"
	"fmt"
	"sync"

	wstypes "mohandz-service/internal/domain/websocket"
)

// MessageHandler answers tab messages beyond the built-in ping and
// subscription ones.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// reservedEvents are answered by Client itself or only ever travel from
// the server to a tab.
var reservedEvents = map[wstypes.EventType]bool{
	wstypes.EventTypePing:           true,
	wstypes.EventTypePong:           true,
	wstypes.EventTypeConnected:      true,
	wstypes.EventTypeError:          true,
	wstypes.EventTypeSubscribe:      true,
	wstypes.EventTypeUnsubscribe:    true,
	wstypes.EventTypeSessionChanged: true,
	wstypes.EventTypeForceLogout:    true,
	wstypes.EventTypeNotification:   true,
	wstypes.EventTypeRequestNew:     true,
}

// HandlerRegistry maps each tab event to the one handler that claimed it.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[wstypes.EventType]MessageHandler),
	}
}

// Register claims every event handler supports. Nothing is registered when
// one of them is reserved or already claimed.
func (r *HandlerRegistry) Register(handler MessageHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := handler.SupportedEvents()
	for _, ev := range events {
		if reservedEvents[ev] {
			return fmt.Errorf("%w: %s", ErrReservedEvent, ev)
		}
		if _, taken := r.handlers[ev]; taken {
			return fmt.Errorf("%w: %s", ErrEventClaimed, ev)
		}
	}
	for _, ev := range events {
		r.handlers[ev] = handler
	}
	return nil
}

// Dispatch runs the handler claiming msg.Type and reports whether there was
// one. A tab whose session has ended gets ErrSessionEnded instead; its
// connection is closed by FollowSession.
func (r *HandlerRegistry) Dispatch(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	r.mu.RLock()
	handler, ok := r.handlers[msg.Type]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if client.Session().Identity == nil {
		return true, ErrSessionEnded
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

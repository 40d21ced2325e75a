package websocket

import (
	"context"
	"testing"

	"mohandz-service/internal/domain/auth"
	wstypes "mohandz-service/internal/domain/websocket"
	"mohandz-service/internal/service/authstate"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type echoHandler struct {
	events []wstypes.EventType
	calls  int
}

func (h *echoHandler) HandleMessage(context.Context, *Client, *wstypes.WSMessage) error {
	h.calls++
	return nil
}

func (h *echoHandler) SupportedEvents() []wstypes.EventType { return h.events }

func TestHandlerRegistry_Register(t *testing.T) {
	t.Run("reserved events cannot be claimed", func(t *testing.T) {
		r := NewHandlerRegistry()
		for _, ev := range []wstypes.EventType{wstypes.EventTypePing, wstypes.EventTypeSubscribe, wstypes.EventTypeForceLogout} {
			err := r.Register(&echoHandler{events: []wstypes.EventType{ev}})
			assert.ErrorIs(t, err, ErrReservedEvent, string(ev))
		}
	})

	t.Run("a second claim leaves the first handler in place", func(t *testing.T) {
		r := NewHandlerRegistry()
		first := &echoHandler{events: []wstypes.EventType{wstypes.EventTypeSessionGet}}
		require.NoError(t, r.Register(first))

		second := &echoHandler{events: []wstypes.EventType{wstypes.EventTypeSessionRefresh, wstypes.EventTypeSessionGet}}
		assert.ErrorIs(t, r.Register(second), ErrEventClaimed)

		_, refreshClaimed := r.handlers[wstypes.EventTypeSessionRefresh]
		assert.False(t, refreshClaimed)
		assert.Same(t, first, r.handlers[wstypes.EventTypeSessionGet])
	})
}

func TestHandlerRegistry_Dispatch(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	h := &echoHandler{events: []wstypes.EventType{wstypes.EventTypeSessionGet}}
	r := NewHandlerRegistry()
	require.NoError(t, r.Register(h))
	ctx := context.Background()

	id := uuid.New()
	signedIn := NewClient(hub, nil, ClientAuth{IdentityID: id, Session: sessionAs(id, auth.RoleClient)})

	handled, err := r.Dispatch(ctx, signedIn, wstypes.NewMessage("session:unknown", nil))
	assert.False(t, handled)
	assert.NoError(t, err)

	handled, err = r.Dispatch(ctx, signedIn, wstypes.NewMessage(wstypes.EventTypeSessionGet, nil))
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Equal(t, 1, h.calls)

	ended := NewClient(hub, nil, ClientAuth{IdentityID: id, Session: &liveSession{snap: authstate.Snapshot{}}})
	handled, err = r.Dispatch(ctx, ended, wstypes.NewMessage(wstypes.EventTypeSessionGet, nil))
	assert.True(t, handled)
	assert.ErrorIs(t, err, ErrSessionEnded)
	assert.Equal(t, 1, h.calls)
}

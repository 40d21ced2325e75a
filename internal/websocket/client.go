// internal/websocket/client.go
package websocket

import (
	"context"
	"sync"
	"time"

	"mohandz-service/internal/domain/auth"
	wstypes "mohandz-service/internal/domain/websocket"
	"mohandz-service/internal/pkg/i18n"
	"mohandz-service/internal/service/authstate"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// SessionSource reports the live session of the tab behind a connection.
type SessionSource interface {
	Snapshot() authstate.Snapshot
}

// TabSession can refresh the token held by the tab.
type TabSession interface {
	Token() string
	RefreshSession(ctx context.Context) (*auth.Session, error)
}

// ClientAuth holds authentication information
type ClientAuth struct {
	IdentityID uuid.UUID
	Email      string
	Lang       i18n.Lang
	Session    SessionSource
	Tab        TabSession
}

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	identityID uuid.UUID
	email      string
	lang       i18n.Lang
	session    SessionSource
	tab        TabSession
	logger     *zap.Logger

	// Subscriptions - what channels this client is listening to
	subscriptions map[wstypes.ChannelType]bool
	subMutex      sync.RWMutex

	sendMu sync.Mutex
	closed bool

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

func NewClient(hub *Hub, conn *websocket.Conn, a ClientAuth) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, 256),
		identityID:    a.IdentityID,
		email:         a.Email,
		lang:          a.Lang,
		session:       a.Session,
		tab:           a.Tab,
		logger:        hub.logger.With(zap.String("identity_id", a.IdentityID.String())),
		subscriptions: make(map[wstypes.ChannelType]bool),
		ctx:           ctx,
		cancel:        cancel,
	}

	c.subscriptions[wstypes.ChannelSession] = true
	c.subscriptions[wstypes.ChannelNotifications] = true
	if c.HasRole(auth.RoleAdmin) {
		c.subscriptions[wstypes.ChannelRequests] = true
	}
	return c
}

// HasRole checks the role of the session as it is right now, so a demoted
// admin stops receiving admin traffic without reconnecting.
func (c *Client) HasRole(role auth.Role) bool {
	if c.session == nil {
		return false
	}
	r, ok := c.session.Snapshot().Role()
	return ok && r == role
}

// Subscribe to a channel (with permission check if needed)
func (c *Client) Subscribe(channel wstypes.ChannelType) error {
	switch channel {
	case wstypes.ChannelSession, wstypes.ChannelNotifications:
	case wstypes.ChannelRequests:
		if !c.HasRole(auth.RoleAdmin) {
			return ErrChannelForbidden
		}
	default:
		return ErrUnknownChannel
	}

	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	c.subscriptions[channel] = true
	return nil
}

// Unsubscribe from a channel
func (c *Client) Unsubscribe(channel wstypes.ChannelType) {
	c.subMutex.Lock()
	defer c.subMutex.Unlock()
	delete(c.subscriptions, channel)
}

// IsSubscribed checks if client is subscribed to a channel
func (c *Client) IsSubscribed(channel wstypes.ChannelType) bool {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	return c.subscriptions[channel]
}

// Channels lists current subscriptions.
func (c *Client) Channels() []wstypes.ChannelType {
	c.subMutex.RLock()
	defer c.subMutex.RUnlock()
	out := make([]wstypes.ChannelType, 0, len(c.subscriptions))
	for _, ch := range []wstypes.ChannelType{wstypes.ChannelSession, wstypes.ChannelNotifications, wstypes.ChannelRequests} {
		if c.subscriptions[ch] {
			out = append(out, ch)
		}
	}
	return out
}

func (c *Client) GetIdentityID() uuid.UUID { return c.identityID }
func (c *Client) Lang() i18n.Lang          { return c.lang }

// Session returns the live snapshot, or an anonymous one when none is bound.
func (c *Client) Session() authstate.Snapshot {
	if c.session == nil {
		return authstate.Snapshot{}
	}
	return c.session.Snapshot()
}

// Tab returns the tab session, or nil.
func (c *Client) Tab() TabSession { return c.tab }

// Context is canceled once the connection is closed.
func (c *Client) Context() context.Context { return c.ctx }

// FollowSession relays every session change to the tab. When a signed-in
// session turns anonymous the tab is told to log out and the connection is
// drained and closed.
func (c *Client) FollowSession(updates <-chan authstate.Snapshot) {
	wasAuthenticated := c.Session().Authenticated()
	for {
		select {
		case <-c.ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			c.SendMessage(wstypes.NewMessage(wstypes.EventTypeSessionChanged, snap.View()))

			if wasAuthenticated && !snap.Loading && !snap.Authenticated() {
				c.SendMessage(wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
					Reason:  "signed_out",
					Message: i18n.T(c.lang, i18n.LogoutSuccess),
				}))
				c.closeSend()
				return
			}
			if !snap.Loading {
				wasAuthenticated = snap.Authenticated()
			}
			if !c.HasRole(auth.RoleAdmin) {
				c.Unsubscribe(wstypes.ChannelRequests)
			}
		}
	}
}

// ReadPump handles incoming messages from client. It returns when the
// connection fails or is closed.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.requestUnregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		c.handleMessage(message)
	}
}

// WritePump handles outgoing messages to client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from client
func (c *Client) handleMessage(data []byte) {
	msg, err := wstypes.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	// Try to handle with registered handlers first
	handled, err := c.hub.HandleClientMessage(c.ctx, c, msg)
	if err != nil {
		c.SendError("handler_error", "Failed to process message", err.Error())
		return
	}
	if handled {
		return
	}

	// Built-in message handling
	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))

	case wstypes.EventTypeSubscribe:
		var req wstypes.SubscribeRequest
		if err := MapToStruct(msg.Data, &req); err != nil {
			c.SendError("invalid_subscribe", "Invalid subscribe request", err.Error())
			return
		}
		accepted := make([]wstypes.ChannelType, 0, len(req.Channels))
		for _, channel := range req.Channels {
			if err := c.Subscribe(channel); err != nil {
				c.SendError("subscribe_rejected", string(channel), err.Error())
				continue
			}
			accepted = append(accepted, channel)
		}
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeSubscribe, map[string]interface{}{
			"channels": accepted,
			"status":   "subscribed",
		}))

	case wstypes.EventTypeUnsubscribe:
		var req wstypes.UnsubscribeRequest
		if err := MapToStruct(msg.Data, &req); err != nil {
			c.SendError("invalid_unsubscribe", "Invalid unsubscribe request", err.Error())
			return
		}
		for _, channel := range req.Channels {
			c.Unsubscribe(channel)
		}
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypeUnsubscribe, map[string]interface{}{
			"channels": req.Channels,
			"status":   "unsubscribed",
		}))

	default:
		c.SendError("unknown_event", "Unsupported event type", string(msg.Type))
	}
}

// SendMessage queues a message for the client. A client that cannot keep up
// is disconnected.
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		c.logger.Error("failed to marshal message", zap.Error(err))
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping client")
		c.closeSendLocked()
		go c.hub.requestUnregister(c)
	}
}

// SendError sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// closeSend stops accepting messages; WritePump flushes what is queued and
// then sends a close frame.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.closeSendLocked()
}

func (c *Client) closeSendLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Close stops both pumps. Safe to call more than once.
func (c *Client) Close() {
	c.closeSend()
	c.cancel()
}

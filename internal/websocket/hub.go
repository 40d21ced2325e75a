// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"mohandz-service/internal/domain/auth"
	"mohandz-service/internal/domain/request"
	wstypes "mohandz-service/internal/domain/websocket"
	"mohandz-service/internal/pkg/metrics"
	"mohandz-service/internal/pkg/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Hub struct {
	// Registered clients by identity ID
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	Register   chan *Client
	unregister chan *Client

	// Broadcasting
	broadcast chan *BroadcastMessage

	// Handler registry for modular message handling
	handlerRegistry *HandlerRegistry

	done     chan struct{}
	doneOnce sync.Once

	metrics metrics.Recorder
	logger  *zap.Logger
}

type BroadcastMessage struct {
	// nil means every connected identity
	IdentityIDs []uuid.UUID
	Channel     wstypes.ChannelType
	Message     *wstypes.WSMessage
	// RequireRole limits delivery to tabs whose session currently has it.
	RequireRole auth.Role
}

func NewHub(rec metrics.Recorder, logger *zap.Logger) *Hub {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Hub{
		clients:         make(map[uuid.UUID]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		handlerRegistry: NewHandlerRegistry(),
		done:            make(chan struct{}),
		metrics:         rec,
		logger:          logger,
	}
}

// RegisterHandler adds a message handler. See HandlerRegistry.Register.
func (h *Hub) RegisterHandler(handler MessageHandler) error {
	return h.handlerRegistry.Register(handler)
}

// HandleClientMessage processes a message from a client using registered
// handlers. It reports whether a handler took the message.
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	return h.handlerRegistry.Dispatch(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.identityID] == nil {
		h.clients[client.identityID] = make(map[*Client]bool)
	}
	h.clients[client.identityID][client] = true

	total := h.totalClients()
	h.metrics.SetRealtimeConnections(total)
	h.logger.Info("realtime client connected",
		zap.String("identity_id", client.identityID.String()),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"identity_id": client.identityID,
		"channels":    client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.identityID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.identityID)
			}

			total := h.totalClients()
			h.metrics.SetRealtimeConnections(total)
			h.logger.Info("realtime client disconnected",
				zap.String("identity_id", client.identityID.String()),
				zap.Int("total", total),
			)
		}
	}
}

// requestUnregister hands client back to the run loop unless the hub has
// stopped.
func (h *Hub) requestUnregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(client *Client) {
		if !client.IsSubscribed(msg.Channel) {
			return
		}
		if msg.RequireRole != "" && !client.HasRole(msg.RequireRole) {
			return
		}
		client.SendMessage(msg.Message)
	}

	if msg.IdentityIDs == nil {
		for _, clients := range h.clients {
			for client := range clients {
				deliver(client)
			}
		}
		return
	}
	for _, identityID := range msg.IdentityIDs {
		for client := range h.clients[identityID] {
			deliver(client)
		}
	}
}

func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) GetConnectedClients(identityID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[identityID])
}

// ClientCount is the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// Public methods for broadcasting

// NotifyUser pushes a notification to every tab of identityID.
func (h *Hub) NotifyUser(identityID uuid.UUID, ev notify.Event) {
	h.enqueue(&BroadcastMessage{
		IdentityIDs: []uuid.UUID{identityID},
		Channel:     wstypes.ChannelNotifications,
		Message:     wstypes.NewMessage(wstypes.EventTypeNotification, ev),
	})
}

// UserSink adapts NotifyUser to a notify.Sink.
func (h *Hub) UserSink(identityID uuid.UUID) notify.Sink {
	return notify.SinkFunc(func(ev notify.Event) {
		h.NotifyUser(identityID, ev)
	})
}

// RequestSubmitted announces a new service request to admin tabs.
func (h *Hub) RequestSubmitted(_ context.Context, req *request.ServiceRequest) {
	data := wstypes.RequestNewData{
		ID:          req.ID,
		FullName:    req.FullName,
		Attachments: len(req.FileURLs),
		CreatedAt:   req.CreatedAt,
	}
	if req.ServiceTitle != nil {
		data.ServiceTitle = *req.ServiceTitle
	}
	h.enqueue(&BroadcastMessage{
		Channel:     wstypes.ChannelRequests,
		Message:     wstypes.NewMessage(wstypes.EventTypeRequestNew, data),
		RequireRole: auth.RoleAdmin,
	})
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(identityID uuid.UUID) bool {
	return h.GetConnectedClients(identityID) > 0
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.doneOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, id)
	}
	h.metrics.SetRealtimeConnections(0)
}

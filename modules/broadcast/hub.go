package broadcast

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/example/taskboard/events"
	"github.com/gofiber/contrib/websocket"
)

// Conn is the write side of a realtime connection as seen by the hub.
// *websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is an admitted realtime connection. Identity comes from the
// verified handshake token; it is recorded but not used for authorization
// of individual events.
type Client struct {
	ID       string
	UserID   string
	Username string
	Conn     Conn
}

type relayFrame struct {
	originID string
	event    string
	data     []byte
}

type announcement struct {
	clientID string
	userID   string
}

// Hub owns the connection registry and the online-identity map. All
// mutation flows through its run loop; delivery is best-effort,
// at-most-once, with no ordering guarantee across connections.
type Hub struct {
	clients    map[string]*Client
	online     map[string]string // announced userID -> clientID, last announce wins
	register   chan *Client
	unregister chan *Client
	relay      chan relayFrame
	announce   chan announcement
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		online:     make(map[string]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		relay:      make(chan relayFrame, 256),
		announce:   make(chan announcement, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case frame := <-h.relay:
			h.handleRelay(frame)
		case ann := <-h.announce:
			h.handleAnnounce(ann)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register admits a client. The handshake token has already been verified
// by the caller; the hub never sees unauthenticated connections.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client. No further relay targets it; frames already
// queued for other connections are unaffected.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Relay re-emits a frame to all admitted connections, including the
// originating one. The payload is forwarded verbatim and never inspected.
func (h *Hub) Relay(origin *Client, event string, data []byte) {
	h.relay <- relayFrame{originID: origin.ID, event: event, data: data}
}

// Announce marks an identity as online and broadcasts a fresh presence
// snapshot. The announced id is taken at face value, mirroring the
// advisory nature of presence.
func (h *Hub) Announce(client *Client, userID string) {
	h.announce <- announcement{clientID: client.ID, userID: userID}
}

// ClientCount returns the number of admitted connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnlineUsers returns the announced identities currently online, sorted.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineLocked()
}

func (h *Hub) onlineLocked() []string {
	users := make([]string, 0, len(h.online))
	for userID := range h.online {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.online = make(map[string]string)
	connectedClients.Set(0)
	onlineUsers.Set(0)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	connectedClients.Set(float64(len(h.clients)))
	log.Printf("[hub] Client %s (%s) registered", client.ID, client.Username)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	connectedClients.Set(float64(len(h.clients)))

	for userID, clientID := range h.online {
		if clientID == client.ID {
			delete(h.online, userID)
			break
		}
	}
	log.Printf("[hub] Client %s (%s) unregistered", client.ID, client.Username)

	// Every disconnect re-broadcasts the snapshot, announced or not.
	h.broadcastSnapshotLocked()
}

func (h *Hub) handleAnnounce(ann announcement) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[ann.clientID]; !ok {
		return
	}
	h.online[ann.userID] = ann.clientID
	h.broadcastSnapshotLocked()
}

func (h *Hub) handleRelay(frame relayFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	relayedEvents.WithLabelValues(frame.event).Inc()
	for _, client := range h.clients {
		h.sendToClient(client, frame.data)
	}
}

// broadcastSnapshotLocked sends the current online set to every client.
// Callers must hold the mutex.
func (h *Hub) broadcastSnapshotLocked() {
	users := h.onlineLocked()
	onlineUsers.Set(float64(len(users)))

	data, err := events.Encode(events.PresenceSnapshot, events.Snapshot{Users: users})
	if err != nil {
		log.Printf("[hub] Failed to encode presence snapshot: %v", err)
		return
	}
	relayedEvents.WithLabelValues(events.PresenceSnapshot).Inc()
	for _, client := range h.clients {
		h.sendToClient(client, data)
	}
}

// sendToClient delivers best-effort. A failed write is dropped, not
// retried; the read loop that owns the connection will notice the error
// and unregister.
func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		droppedWrites.Inc()
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

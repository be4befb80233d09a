// Package broadcast pushes completed decisions to connected dashboard
// clients over WebSocket.
package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// ServerMessage is the envelope sent to websocket clients.
type ServerMessage struct {
	Type      string          `json:"type"`
	Payload   models.Decision `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

const messageTypeDecision = "decision"

// Hub maintains the set of active clients and broadcasts decisions to them.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.Decision
	register   chan *Client
	unregister chan *Client

	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.Decision, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run(ctx context.Context) {
	fmt.Println("✓ Broadcast hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case decision := <-h.broadcast:
			h.broadcastDecision(decision)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a decision for delivery to all connected clients.
func (h *Hub) Broadcast(decision models.Decision) {
	select {
	case h.broadcast <- decision:
	default:
		fmt.Println("⚠️  Broadcast buffer full, dropping decision")
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true

	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	fmt.Printf("client %s connected (total: %d)\n", c.ID, len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		fmt.Printf("client %s disconnected (total: %d)\n", c.ID, len(h.clients))
	}
}

func (h *Hub) broadcastDecision(decision models.Decision) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      messageTypeDecision,
		Payload:   decision,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		select {
		case c.Send <- message:
			sent++
		default:
			// Slow client: drop the message rather than block the hub
		}
	}

	h.metricsMu.Lock()
	h.totalMessages += int64(sent)
	h.metricsMu.Unlock()
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}

	fmt.Println("✓ Broadcast hub stopped")
}

// Metrics returns total connections and messages delivered.
func (h *Hub) Metrics() (connections, messages int64) {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	return h.totalConnections, h.totalMessages
}

package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed to connected dashboards
const (
	EventTypeSale             = "sale"
	EventTypeCommissionCredit = "commission_credit"
)

// Event is a message sent over WebSocket to dashboard clients
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userId,omitempty"`
}

// Client represents a connected dashboard client
type Client struct {
	UserID primitive.ObjectID
	Conn   *websocket.Conn
}

// Hub maintains the set of connected dashboard clients and pushes live
// sale and commission events to them. A failed or absent subscriber never
// affects the payment flow.
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; ok {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends an event to a specific connected user
func (h *Hub) SendToUser(userID primitive.ObjectID, event Event) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(event)
}

// Broadcast sends an event to every connected client
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.Conn.WriteJSON(event)
	}
}

// NotifySale pushes a paid-order event to all connected dashboards.
func (h *Hub) NotifySale(data interface{}) {
	h.Broadcast(Event{
		Type:    EventTypeSale,
		Message: "Order paid",
		Data:    data,
	})
}

// NotifyCommission pushes a commission-credit event to the affiliate's own
// dashboard connection when one is open.
func (h *Hub) NotifyCommission(affiliateUserID primitive.ObjectID, data interface{}) {
	_ = h.SendToUser(affiliateUserID, Event{
		Type:    EventTypeCommissionCredit,
		Message: "Commission credited",
		Data:    data,
	})
}

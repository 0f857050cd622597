package notify

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is pushed to subscribers when a permit changes status.
type Event struct {
	PermitID  string    `json:"permit_id"`
	Number    string    `json:"number"`
	Reference string    `json:"reference,omitempty"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans workflow events out to WebSocket subscribers. A client
// subscribed to a permit id receives only that permit's events; a client
// subscribed to "*" receives everything.
type Hub struct {
	clients map[*Client]bool

	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client

	done chan struct{}
	mu   sync.RWMutex
}

// NewHub creates an idle hub; call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Broadcast:  make(chan Event, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run dispatches events until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case event := <-h.Broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				if client.PermitID != "*" && client.PermitID != event.PermitID {
					continue
				}
				select {
				case client.Send <- payload:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects every subscriber.
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastEvent queues an event for dispatch. Drops the event rather
// than blocking when the hub is saturated.
func (h *Hub) BroadcastEvent(event Event) {
	select {
	case h.Broadcast <- event:
	default:
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

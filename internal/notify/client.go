package notify

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// write timeout
	writeWait = 10 * time.Second

	// read timeout
	pongWait = 60 * time.Second

	// ping interval, must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maximum inbound message size
	maxMessageSize = 4 * 1024
)

// Client is one WebSocket subscriber, bound to a single permit id
// (or "*" for all permits).
type Client struct {
	ID       string
	PermitID string
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
}

// NewClient creates a subscriber for the given permit.
func NewClient(id string, permitID string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:       id,
		PermitID: permitID,
		Hub:      hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}
}

// ReadPump drains the connection so pings are answered; subscribers never
// send application messages.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}
	}
}

// WritePump writes queued events and keeps the connection alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// flush the rest of the queue into the same frame batch
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscriber(hub *Hub, permitID string) *Client {
	client := &Client{
		Hub:      hub,
		PermitID: permitID,
		Send:     make(chan []byte, 8),
	}
	hub.Register <- client
	return client
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.After(time.Second)
	for hub.ClientCount() != want {
		select {
		case <-deadline:
			t.Fatalf("hub never reached %d clients", want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case payload := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

// TestHubFiltersByPermit checks per-permit delivery and the wildcard.
func TestHubFiltersByPermit(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	onP1 := newSubscriber(hub, "p-1")
	onP2 := newSubscriber(hub, "p-2")
	onAll := newSubscriber(hub, "*")
	waitForClients(t, hub, 3)

	hub.BroadcastEvent(Event{PermitID: "p-1", Action: "submit", Status: "pending_chef_validation"})

	got := receive(t, onP1)
	assert.Equal(t, "submit", got.Action)
	got = receive(t, onAll)
	assert.Equal(t, "p-1", got.PermitID)

	select {
	case <-onP2.Send:
		t.Fatal("subscriber of p-2 received a p-1 event")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHubUnregister checks subscriber removal.
func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := newSubscriber(hub, "p-1")
	waitForClients(t, hub, 1)

	hub.Unregister <- client
	waitForClients(t, hub, 0)

	// Channel is closed on unregister.
	_, open := <-client.Send
	assert.False(t, open)
}

// TestBroadcastEventNeverBlocks checks the saturation behavior.
func TestBroadcastEventNeverBlocks(t *testing.T) {
	hub := NewHub() // not running

	for i := 0; i < 200; i++ {
		hub.BroadcastEvent(Event{PermitID: "p-1", Action: "submit"})
	}
	// Queue holds at most its buffer; the rest were dropped silently.
	assert.LessOrEqual(t, len(hub.Broadcast), 64)
}

package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newHubClient(hub *Hub, sessionID string) *Client {
	return newHubClientWithBuffer(hub, sessionID, 16)
}

func newHubClientWithBuffer(hub *Hub, sessionID string, buffer int) *Client {
	return &Client{
		Hub:       hub,
		SessionID: sessionID,
		Send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
		rooms:     make(map[string]struct{}),
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case data := <-c.Send:
			out = append(out, data)
		default:
			return out
		}
	}
}

func TestBroadcastRoomReachesSubscribersOnly(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	subscribed := newHubClient(hub, "s1")
	other := newHubClient(hub, "s2")

	hub.Subscribe(subscribed, "room-1")
	hub.Subscribe(other, "room-2")

	hub.BroadcastRoom("room-1", []byte("hello"))

	assert.Len(t, drain(subscribed), 1)
	assert.Empty(t, drain(other))
}

func TestBroadcastRoomPreservesOrder(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	client := newHubClient(hub, "s1")
	hub.Subscribe(client, "room-1")

	hub.BroadcastRoom("room-1", []byte("first"))
	hub.BroadcastRoom("room-1", []byte("second"))

	frames := drain(client)
	assert.Equal(t, [][]byte{[]byte("first"), []byte("second")}, frames)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	client := newHubClient(hub, "s1")

	hub.Subscribe(client, "room-1")
	hub.Unsubscribe(client, "room-1")

	hub.BroadcastRoom("room-1", []byte("hello"))
	assert.Empty(t, drain(client))
}

func TestSubscribeTwiceDeliversOnce(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	client := newHubClient(hub, "s1")

	hub.Subscribe(client, "room-1")
	hub.Subscribe(client, "room-1")

	hub.BroadcastRoom("room-1", []byte("hello"))
	assert.Len(t, drain(client), 1)
}

func TestSendToPrincipalReachesAllDevices(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	phone := newHubClient(hub, "s1")
	laptop := newHubClient(hub, "s2")
	stranger := newHubClient(hub, "s3")

	hub.Attach(phone, "alice")
	hub.Attach(laptop, "alice")
	hub.Attach(stranger, "bob")

	hub.SendToPrincipal("alice", []byte("ping"))

	assert.Len(t, drain(phone), 1)
	assert.Len(t, drain(laptop), 1)
	assert.Empty(t, drain(stranger))
}

func TestRemoveClientCleansIndexes(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	client := newHubClient(hub, "s1")

	hub.Subscribe(client, "room-1")
	hub.Attach(client, "alice")

	hub.mu.Lock()
	hub.removeClient(client)
	hub.mu.Unlock()

	assert.NotContains(t, hub.rooms, "room-1")
	assert.NotContains(t, hub.principals, "alice")

	select {
	case <-client.done:
	default:
		t.Fatal("client was not signaled to shut down")
	}

	// Idempotent: a second removal must not double-close done.
	hub.mu.Lock()
	hub.removeClient(client)
	hub.mu.Unlock()
}

func TestTrySendAfterDropDoesNotPanic(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	client := newHubClientWithBuffer(hub, "s1", 1)
	hub.Subscribe(client, "room-1")

	// Second broadcast overflows the 1-slot buffer and drops the client.
	hub.BroadcastRoom("room-1", []byte("first"))
	hub.BroadcastRoom("room-1", []byte("second"))

	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return client.closed
	}, time.Second, 10*time.Millisecond)

	// The read pump may still be processing frames after the drop; queueing a
	// reply must never hit a closed channel.
	client.trySend([]byte("late reply"))

	select {
	case <-client.done:
	default:
		t.Fatal("dropped client was not signaled to shut down")
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"chat-relay-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Hub struct {
	// Room subscriptions: room id -> clients currently subscribed.
	rooms map[string][]*Client

	// Authenticated connections: principal -> clients (multi-device).
	principals map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	// Identifies this instance on the Redis channel so it can skip its own
	// published messages (local delivery already happened).
	instanceID string

	// Dedicated Logger
	logger logger.ILogger
}

// fanoutPayload is the envelope published to Redis for other instances.
// Exactly one of Room or Principal is set.
type fanoutPayload struct {
	Origin    string          `json:"origin"`
	Room      string          `json:"room,omitempty"`
	Principal string          `json:"principal,omitempty"`
	Message   json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string][]*Client),
		principals: make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			// Room and principal indexes are filled later, on subscribe and
			// on authentication. Registration only announces the connection.
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()
		}
	}
}

// removeClient drops the client from every index and signals its write pump
// to stop. Send is left open: the read pump may still be running and must be
// able to call trySend without panicking. Caller must hold h.mu.
func (h *Hub) removeClient(client *Client) {
	if client.closed {
		return
	}
	client.closed = true

	for room := range client.rooms {
		h.rooms[room] = removeFromSlice(h.rooms[room], client)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}

	if client.Principal != "" {
		h.principals[client.Principal] = removeFromSlice(h.principals[client.Principal], client)
		if len(h.principals[client.Principal]) == 0 {
			delete(h.principals, client.Principal)
		}
	}

	close(client.done)
	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"session_id": client.SessionID})
}

func removeFromSlice(clients []*Client, target *Client) []*Client {
	for i, c := range clients {
		if c == target {
			return append(clients[:i], clients[i+1:]...)
		}
	}
	return clients
}

// Attach indexes an authenticated client under its principal so targeted
// notifications can reach it.
func (h *Hub) Attach(client *Client, principal string) {
	h.mu.Lock()
	client.Principal = principal
	h.principals[principal] = append(h.principals[principal], client)
	h.mu.Unlock()
	h.logger.Info("Hub", "Client authenticated", map[string]interface{}{
		"session_id": client.SessionID,
		"principal":  principal,
	})
}

// Subscribe adds the client to a room. Subscribing twice is a no-op.
func (h *Hub) Subscribe(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := client.rooms[room]; ok {
		return
	}
	client.rooms[room] = struct{}{}
	h.rooms[room] = append(h.rooms[room], client)
}

// Unsubscribe removes the client from a room. Unknown rooms are a no-op.
func (h *Hub) Unsubscribe(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := client.rooms[room]; !ok {
		return
	}
	delete(client.rooms, room)
	h.rooms[room] = removeFromSlice(h.rooms[room], client)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

// BroadcastRoom delivers a serialized frame to every local subscriber of the
// room and relays it to other instances over Redis. A subscriber whose send
// buffer is full is dropped rather than blocking the fan-out.
func (h *Hub) BroadcastRoom(room string, data []byte) {
	var dropped []*Client

	h.mu.RLock()
	for _, client := range h.rooms[room] {
		select {
		case client.Send <- data:
		default:
			dropped = append(dropped, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dropped {
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"session_id": client.SessionID})
		h.unregister <- client
	}

	if h.rdb != nil {
		h.publishToRedis(fanoutPayload{Origin: h.instanceID, Room: room, Message: data})
	}
}

// SendToPrincipal delivers a serialized frame to every connection of one
// principal, locally and across instances.
func (h *Hub) SendToPrincipal(principal string, data []byte) {
	var dropped []*Client

	h.mu.RLock()
	for _, client := range h.principals[principal] {
		select {
		case client.Send <- data:
		default:
			dropped = append(dropped, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dropped {
		h.unregister <- client
	}

	if h.rdb != nil {
		h.publishToRedis(fanoutPayload{Origin: h.instanceID, Principal: principal, Message: data})
	}
}

func (h *Hub) publishToRedis(payload fanoutPayload) {
	jsonPayload, _ := json.Marshal(payload)
	h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the single cluster channel and filters by
	// what it holds locally. Messages this instance published are skipped;
	// local delivery already happened in BroadcastRoom / SendToPrincipal.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload fanoutPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.Origin == h.instanceID {
			continue
		}

		h.deliverLocal(payload)
	}
}

func (h *Hub) deliverLocal(payload fanoutPayload) {
	var targets []*Client

	h.mu.RLock()
	if payload.Room != "" {
		targets = append(targets, h.rooms[payload.Room]...)
	} else if payload.Principal != "" {
		targets = append(targets, h.principals[payload.Principal]...)
	}
	h.mu.RUnlock()

	var dropped []*Client
	for _, client := range targets {
		select {
		case client.Send <- payload.Message:
		default:
			dropped = append(dropped, client)
		}
	}
	for _, client := range dropped {
		h.unregister <- client
	}
}

package websocket

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// SessionID identifies this connection for its lifetime.
	SessionID string

	// Principal is empty until the connection authenticates; anonymous
	// connections keep it empty forever.
	Principal string

	// Buffered channel of outbound messages. Never closed: senders race with
	// the pumps, so shutdown is signaled on done instead.
	Send chan []byte

	// Closed by the hub when the client is removed; tells writePump to stop.
	done chan struct{}

	// Rooms this client is subscribed to. Guarded by Hub.mu.
	rooms map[string]struct{}

	// Set once the hub has removed the client. Guarded by Hub.mu.
	closed bool

	gate *Gatekeeper
}

// readPump pumps frames from the websocket connection to the gatekeeper.
func (c *Client) readPump() {
	defer func() {
		c.gate.OnClose(c)
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			break
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.trySend(errorFrame("malformed frame"))
			continue
		}

		c.gate.Handle(c, &frame)
	}
}

// trySend queues a frame without blocking the read loop. A full buffer means
// the write side is stalled; the frame is dropped and the pumps will tear the
// connection down on their own. Safe after removal too: Send stays open for
// the life of the client.
func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			// The hub removed the client.
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

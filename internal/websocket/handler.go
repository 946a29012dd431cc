package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs handles an upgraded websocket connection. It runs until the peer
// disconnects; the caller's fiber handler goroutine hosts the read pump.
func ServeWs(hub *Hub, gate *Gatekeeper, conn *websocket.Conn) {
	client := &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: uuid.NewString(),
		Send:      make(chan []byte, 256),
		done:      make(chan struct{}),
		rooms:     make(map[string]struct{}),
		gate:      gate,
	}

	gate.OnOpen(client)
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}

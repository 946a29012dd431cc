package websocket

import (
	"context"
	"time"

	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/internal/pkg/token"
	"chat-relay-be/internal/repository/memory"
	"chat-relay-be/pkg/store"
)

// Relay persists and fans out chat messages. Implemented by the relay
// service; declared here so the transport layer does not depend on it.
type Relay interface {
	Publish(ctx context.Context, roomId, declaredSender, text, principal string) error
}

// Gatekeeper drives the per-connection protocol: the authentication handshake
// first, then subscriptions and message submission. One instance serves all
// connections; per-connection state lives in the session store.
type Gatekeeper struct {
	verifier *token.Verifier
	sessions *memory.SessionRepository
	relay    Relay
	logger   logger.ILogger
	handlers map[string]func(*Client, *Frame)
}

func NewGatekeeper(verifier *token.Verifier, sessions *memory.SessionRepository, relay Relay, log logger.ILogger) *Gatekeeper {
	g := &Gatekeeper{
		verifier: verifier,
		sessions: sessions,
		relay:    relay,
		logger:   log,
	}
	g.handlers = map[string]func(*Client, *Frame){
		FrameConnect:     g.handleConnect,
		FrameSubscribe:   g.handleSubscribe,
		FrameUnsubscribe: g.handleUnsubscribe,
		FrameSend:        g.handleSend,
	}
	return g
}

// OnOpen records a fresh session awaiting its connect frame.
func (g *Gatekeeper) OnOpen(c *Client) {
	g.sessions.Save(&store.ConnSession{
		ID:          c.SessionID,
		State:       store.StateAwaitingAuth,
		ConnectedAt: time.Now(),
	})
}

// OnClose stamps the terminal state and drops the session. The hub removes
// the client from its indexes separately.
func (g *Gatekeeper) OnClose(c *Client) {
	if session, found := g.sessions.Get(c.SessionID); found {
		session.State = store.StateClosed
	}
	g.sessions.Delete(c.SessionID)
}

// Handle dispatches one inbound frame. Unknown types get an error frame; the
// connection stays open.
func (g *Gatekeeper) Handle(c *Client, f *Frame) {
	handler, ok := g.handlers[f.Type]
	if !ok {
		c.trySend(errorFrame("unknown frame type: " + f.Type))
		return
	}
	handler(c, f)
}

// handleConnect verifies the credentials carried on the connect frame. The
// verification happens exactly once: a failed token does not close the
// connection, it degrades it to anonymous for its whole lifetime.
func (g *Gatekeeper) handleConnect(c *Client, f *Frame) {
	session, found := g.sessions.Get(c.SessionID)
	if !found {
		c.trySend(errorFrame("session not found"))
		return
	}
	if session.State != store.StateAwaitingAuth {
		c.trySend(errorFrame("already connected"))
		return
	}

	principal := ""
	if raw := token.StripBearer(f.Headers["Authorization"]); raw != "" {
		verified, err := g.verifier.Verify(raw)
		if err != nil {
			g.logger.Warn("Gatekeeper", "Token verification failed, continuing as anonymous", map[string]interface{}{
				"session_id": c.SessionID,
			})
		} else {
			principal = verified
		}
	}

	session.State = store.StateAuthenticated
	session.Principal = principal
	g.sessions.Save(session)

	if principal != "" {
		c.Hub.Attach(c, principal)
	}

	c.trySend(connectedFrame(principal))
}

func (g *Gatekeeper) handleSubscribe(c *Client, f *Frame) {
	if f.Room == "" {
		c.trySend(errorFrame("room is required"))
		return
	}
	c.Hub.Subscribe(c, f.Room)
	c.trySend(ackFrame(FrameSubscribed, f.Room))
}

func (g *Gatekeeper) handleUnsubscribe(c *Client, f *Frame) {
	if f.Room == "" {
		c.trySend(errorFrame("room is required"))
		return
	}
	c.Hub.Unsubscribe(c, f.Room)
	c.trySend(ackFrame(FrameUnsubscribed, f.Room))
}

// handleSend forwards the message to the relay. The declared sender travels
// along but the relay decides the effective one from the session principal.
func (g *Gatekeeper) handleSend(c *Client, f *Frame) {
	if f.Room == "" || f.Text == "" {
		c.trySend(errorFrame("room and text are required"))
		return
	}

	if err := g.relay.Publish(context.Background(), f.Room, f.Sender, f.Text, c.Principal); err != nil {
		g.logger.Error("Gatekeeper", "Message publish failed", map[string]interface{}{
			"session_id": c.SessionID,
			"room":       f.Room,
			"error":      err.Error(),
		})
		c.trySend(errorFrame("message could not be delivered"))
	}
}

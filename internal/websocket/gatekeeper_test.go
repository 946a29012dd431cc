package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"chat-relay-be/internal/pkg/token"
	"chat-relay-be/internal/repository/memory"
	"chat-relay-be/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "gatekeeper-secret"

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type relayCall struct {
	RoomId         string
	DeclaredSender string
	Text           string
	Principal      string
}

type fakeRelay struct {
	mu    sync.Mutex
	calls []relayCall
	err   error
}

func (r *fakeRelay) Publish(ctx context.Context, roomId, declaredSender, text, principal string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, relayCall{roomId, declaredSender, text, principal})
	return nil
}

type gateFixture struct {
	gate     *Gatekeeper
	hub      *Hub
	sessions *memory.SessionRepository
	relay    *fakeRelay
	client   *Client
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	hub := NewHub(nil, nopLogger{})
	sessions := memory.NewSessionRepository()
	relay := &fakeRelay{}
	gate := NewGatekeeper(token.NewVerifier(testSecret), sessions, relay, nopLogger{})

	client := &Client{
		Hub:       hub,
		SessionID: "session-1",
		Send:      make(chan []byte, 16),
		done:      make(chan struct{}),
		rooms:     make(map[string]struct{}),
		gate:      gate,
	}
	gate.OnOpen(client)

	return &gateFixture{gate: gate, hub: hub, sessions: sessions, relay: relay, client: client}
}

func (f *gateFixture) lastFrame(t *testing.T) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-f.client.Send:
		var frame map[string]interface{}
		assert.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	default:
		t.Fatal("no frame queued")
		return nil
	}
}

func mintToken(t *testing.T, principal string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": principal,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func TestConnectWithValidToken(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{
		Type:    FrameConnect,
		Headers: map[string]string{"Authorization": "Bearer " + mintToken(t, "alice")},
	})

	frame := f.lastFrame(t)
	assert.Equal(t, FrameConnected, frame["type"])
	assert.Equal(t, "alice", frame["principal"])
	assert.Equal(t, "alice", f.client.Principal)

	session, found := f.sessions.Get("session-1")
	assert.True(t, found)
	assert.Equal(t, store.StateAuthenticated, session.State)
	assert.Equal(t, "alice", session.Principal)
}

func TestConnectWithInvalidTokenDegradesToAnonymous(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{
		Type:    FrameConnect,
		Headers: map[string]string{"Authorization": "Bearer not-a-token"},
	})

	// The connection survives, just without an identity.
	frame := f.lastFrame(t)
	assert.Equal(t, FrameConnected, frame["type"])
	assert.Equal(t, "", frame["principal"])
	assert.Equal(t, "", f.client.Principal)

	session, _ := f.sessions.Get("session-1")
	assert.Equal(t, store.StateAuthenticated, session.State)
	assert.Equal(t, "", session.Principal)
}

func TestConnectWithoutCredentials(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{Type: FrameConnect})

	frame := f.lastFrame(t)
	assert.Equal(t, FrameConnected, frame["type"])
	assert.Equal(t, "", f.client.Principal)
}

func TestSecondConnectIsRejected(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{Type: FrameConnect})
	f.lastFrame(t)

	f.gate.Handle(f.client, &Frame{Type: FrameConnect})
	frame := f.lastFrame(t)
	assert.Equal(t, FrameError, frame["type"])
}

func TestUnknownFrameType(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{Type: "dance"})

	frame := f.lastFrame(t)
	assert.Equal(t, FrameError, frame["type"])
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{Type: FrameSubscribe, Room: "room-1"})
	frame := f.lastFrame(t)
	assert.Equal(t, FrameSubscribed, frame["type"])
	assert.Equal(t, "room-1", frame["room"])
	assert.Contains(t, f.hub.rooms, "room-1")

	f.gate.Handle(f.client, &Frame{Type: FrameUnsubscribe, Room: "room-1"})
	frame = f.lastFrame(t)
	assert.Equal(t, FrameUnsubscribed, frame["type"])
	assert.NotContains(t, f.hub.rooms, "room-1")
}

func TestSubscribeRequiresRoom(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{Type: FrameSubscribe})

	frame := f.lastFrame(t)
	assert.Equal(t, FrameError, frame["type"])
}

func TestSendCarriesSessionPrincipal(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{
		Type:    FrameConnect,
		Headers: map[string]string{"Authorization": "Bearer " + mintToken(t, "alice")},
	})
	f.lastFrame(t)

	f.gate.Handle(f.client, &Frame{Type: FrameSend, Room: "room-1", Sender: "mallory", Text: "hello"})

	assert.Len(t, f.relay.calls, 1)
	call := f.relay.calls[0]
	assert.Equal(t, "room-1", call.RoomId)
	assert.Equal(t, "hello", call.Text)
	assert.Equal(t, "alice", call.Principal)
	assert.Equal(t, "mallory", call.DeclaredSender)
}

func TestSendWithoutAuthIsAnonymous(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{Type: FrameSend, Room: "room-1", Text: "hi"})

	assert.Len(t, f.relay.calls, 1)
	assert.Equal(t, "", f.relay.calls[0].Principal)
}

func TestSendRequiresRoomAndText(t *testing.T) {
	f := newGateFixture(t)

	f.gate.Handle(f.client, &Frame{Type: FrameSend, Room: "room-1"})
	frame := f.lastFrame(t)
	assert.Equal(t, FrameError, frame["type"])

	f.gate.Handle(f.client, &Frame{Type: FrameSend, Text: "hi"})
	frame = f.lastFrame(t)
	assert.Equal(t, FrameError, frame["type"])
}

func TestSendRelayFailureReportsError(t *testing.T) {
	f := newGateFixture(t)
	f.relay.err = errors.New("db down")

	f.gate.Handle(f.client, &Frame{Type: FrameSend, Room: "room-1", Text: "hi"})

	frame := f.lastFrame(t)
	assert.Equal(t, FrameError, frame["type"])
}

func TestOnCloseDropsSession(t *testing.T) {
	f := newGateFixture(t)

	session, found := f.sessions.Get("session-1")
	assert.True(t, found)

	f.gate.OnClose(f.client)

	// Holders of the session record observe the terminal state.
	assert.Equal(t, store.StateClosed, session.State)

	_, found = f.sessions.Get("session-1")
	assert.False(t, found)
}

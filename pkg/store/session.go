package store

import "time"

// ConnSession tracks the authentication state of one realtime connection.
// Sessions are in-memory only; they are created when the transport upgrades
// and dropped on close.
type ConnSession struct {
	ID          string    `json:"id"` // transport session id
	Principal   string    `json:"principal"`
	State       string    `json:"state"`
	ConnectedAt time.Time `json:"connected_at"`
}

const (
	StateAwaitingAuth  = "AWAITING_AUTH"
	StateAuthenticated = "AUTHENTICATED"
	StateClosed        = "CLOSED"
)

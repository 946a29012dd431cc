package websocket

import "encoding/json"

// Frame types the client may send.
const (
	FrameConnect     = "connect"
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameSend        = "send"
)

// Frame types the server emits.
const (
	FrameConnected    = "connected"
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FrameMessage      = "message"
	FrameNotification = "notification"
	FrameError        = "error"
)

// Frame is the envelope for every realtime payload, in both directions.
// Fields are populated depending on Type; unknown fields are ignored.
type Frame struct {
	Type    string            `json:"type"`
	Room    string            `json:"room,omitempty"`
	Sender  string            `json:"sender,omitempty"`
	Text    string            `json:"text,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func connectedFrame(principal string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"type":      FrameConnected,
		"principal": principal,
	})
	return data
}

func ackFrame(frameType, room string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"type": frameType,
		"room": room,
	})
	return data
}

func errorFrame(message string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"type":    FrameError,
		"message": message,
	})
	return data
}

package entity

import (
	"time"
)

// ChatMessage is the persisted chat record. Id and CreatedAt are assigned by
// the store at persistence time; records are immutable once created.
type ChatMessage struct {
	Id        int64
	RoomId    string
	Sender    string
	Text      string
	CreatedAt time.Time
}

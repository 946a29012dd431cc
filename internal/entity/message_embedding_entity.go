package entity

import (
	"time"

	"github.com/google/uuid"
)

// MessageEmbedding is the derived vector for one chat message. At most one is
// created per message; it may be missing when generation failed.
type MessageEmbedding struct {
	Id               uuid.UUID
	RoomId           string
	Sender           string
	Document         string
	EmbeddingValue   []float32
	MessageId        int64
	MessageCreatedAt time.Time
	CreatedAt        time.Time
}

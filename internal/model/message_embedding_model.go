package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type MessageEmbedding struct {
	Id               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomId           string          `gorm:"type:varchar(255);not null;index"`
	Sender           string          `gorm:"type:varchar(255);not null"`
	Document         string          `gorm:"type:text"`
	EmbeddingValue   pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	MessageId        int64           `gorm:"not null;index"`
	MessageCreatedAt time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
}

func (MessageEmbedding) TableName() string {
	return "message_embeddings"
}

package dto

import (
	"time"
)

type ChatMessageResponse struct {
	Id        int64     `json:"id"`
	RoomId    string    `json:"room_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type AskRequest struct {
	Question string `json:"question" validate:"required"`
	TopK     int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
}

type SourceDTO struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type AskResponse struct {
	Answer  string      `json:"answer"`
	Sources []SourceDTO `json:"sources,omitempty"`
}

// PublishEmbedChatMessage is the payload carried on the persisted-message
// topic between the relay and the embedding consumer.
type PublishEmbedChatMessage struct {
	MessageId int64     `json:"message_id"`
	RoomId    string    `json:"room_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

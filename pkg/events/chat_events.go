package events

import "time"

const (
	TypeMessagePersisted = "chat.message.persisted"
	TypeQuestionAnswered = "chat.question.answered"
)

// NewMessagePersisted is emitted after a chat message became durable.
func NewMessagePersisted(messageId int64, roomId, sender string, createdAt time.Time) Event {
	return BaseEvent{
		Type: TypeMessagePersisted,
		Data: map[string]interface{}{
			"message_id": messageId,
			"room_id":    roomId,
			"sender":     sender,
			"created_at": createdAt.Format(time.RFC3339),
		},
		OccurredAt: time.Now(),
	}
}

// NewQuestionAnswered is emitted after the answer pipeline produced a response.
func NewQuestionAnswered(principal, question, answer string) Event {
	return BaseEvent{
		Type: TypeQuestionAnswered,
		Data: map[string]interface{}{
			"principal": principal,
			"question":  question,
			"answer":    answer,
		},
		OccurredAt: time.Now(),
	}
}

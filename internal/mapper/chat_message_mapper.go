package mapper

import (
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/model"
)

type ChatMessageMapper struct{}

func NewChatMessageMapper() *ChatMessageMapper {
	return &ChatMessageMapper{}
}

func (m *ChatMessageMapper) ToEntity(e *model.ChatMessage) *entity.ChatMessage {
	if e == nil {
		return nil
	}

	return &entity.ChatMessage{
		Id:        e.Id,
		RoomId:    e.RoomId,
		Sender:    e.Sender,
		Text:      e.Text,
		CreatedAt: e.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToModel(e *entity.ChatMessage) *model.ChatMessage {
	if e == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:        e.Id,
		RoomId:    e.RoomId,
		Sender:    e.Sender,
		Text:      e.Text,
		CreatedAt: e.CreatedAt,
	}
}

func (m *ChatMessageMapper) ToEntities(messages []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(messages))
	for i, e := range messages {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

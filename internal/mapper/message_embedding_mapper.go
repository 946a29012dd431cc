package mapper

import (
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type MessageEmbeddingMapper struct{}

func NewMessageEmbeddingMapper() *MessageEmbeddingMapper {
	return &MessageEmbeddingMapper{}
}

func (m *MessageEmbeddingMapper) ToEntity(e *model.MessageEmbedding) *entity.MessageEmbedding {
	if e == nil {
		return nil
	}

	return &entity.MessageEmbedding{
		Id:               e.Id,
		RoomId:           e.RoomId,
		Sender:           e.Sender,
		Document:         e.Document,
		EmbeddingValue:   e.EmbeddingValue.Slice(),
		MessageId:        e.MessageId,
		MessageCreatedAt: e.MessageCreatedAt,
		CreatedAt:        e.CreatedAt,
	}
}

func (m *MessageEmbeddingMapper) ToModel(e *entity.MessageEmbedding) *model.MessageEmbedding {
	if e == nil {
		return nil
	}

	return &model.MessageEmbedding{
		Id:               e.Id,
		RoomId:           e.RoomId,
		Sender:           e.Sender,
		Document:         e.Document,
		EmbeddingValue:   pgvector.NewVector(e.EmbeddingValue),
		MessageId:        e.MessageId,
		MessageCreatedAt: e.MessageCreatedAt,
		CreatedAt:        e.CreatedAt,
	}
}

func (m *MessageEmbeddingMapper) ToEntities(embeddings []*model.MessageEmbedding) []*entity.MessageEmbedding {
	entities := make([]*entity.MessageEmbedding, len(embeddings))
	for i, e := range embeddings {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

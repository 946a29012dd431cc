package contract

import (
	"context"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"
)

type MessageEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.MessageEmbedding) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

package contract

import (
	"context"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"
)

// ChatMessageRepository is the single source of truth for message identity and
// ordering. Create assigns the id and server-side timestamp exactly once and
// the row is durable when it returns nil. Records are never updated.
type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/internal/repository/contract"
	"chat-relay-be/internal/repository/specification"
	"chat-relay-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns persisted chat messages into stored embeddings. The
// pipeline is best-effort: a message that fails to embed is logged and
// dropped, never retried, and chat delivery is unaffected either way.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	embeddingRepo     contract.MessageEmbeddingRepository
	embeddingProvider embedding.EmbeddingProvider
	embedTimeout      time.Duration
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	embeddingRepo contract.MessageEmbeddingRepository,
	embeddingProvider embedding.EmbeddingProvider,
	embedTimeout time.Duration,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		embeddingRepo:     embeddingRepo,
		embeddingProvider: embeddingProvider,
		embedTimeout:      embedTimeout,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage embeds one chat message and stores the vector. Every exit
// path Acks: there is no retry in this pipeline, a failed message is gone.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishEmbedChatMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal embed task", map[string]interface{}{"error": err.Error()})
		return
	}

	// Duplicate deliveries produce one vector row per message.
	lookupCtx, cancelLookup := context.WithTimeout(ctx, cs.embedTimeout)
	count, err := cs.embeddingRepo.Count(lookupCtx, specification.ByMessageId{MessageId: payload.MessageId})
	cancelLookup()
	if err == nil && count > 0 {
		cs.logger.Info("ConsumerService", "Message already embedded, skipping", map[string]interface{}{"message_id": payload.MessageId})
		return
	}

	embedCtx, cancel := context.WithTimeout(ctx, cs.embedTimeout)
	defer cancel()

	res, err := cs.embeddingProvider.Generate(embedCtx, payload.Text, embedding.TaskDocument)
	if err != nil {
		cs.logger.Error("ConsumerService", "Embedding generation failed, dropping message", map[string]interface{}{
			"message_id": payload.MessageId,
			"error":      err.Error(),
		})
		return
	}

	record := entity.MessageEmbedding{
		Id:               uuid.New(),
		RoomId:           payload.RoomId,
		Sender:           payload.Sender,
		Document:         payload.Text,
		EmbeddingValue:   res.Embedding.Values,
		MessageId:        payload.MessageId,
		MessageCreatedAt: payload.CreatedAt,
		CreatedAt:        time.Now(),
	}

	// Bound the write too; the consumer context itself has no deadline.
	storeCtx, cancelStore := context.WithTimeout(ctx, cs.embedTimeout)
	defer cancelStore()

	if err := cs.embeddingRepo.Create(storeCtx, &record); err != nil {
		cs.logger.Error("ConsumerService", "Embedding store failed, dropping message", map[string]interface{}{
			"message_id": payload.MessageId,
			"error":      err.Error(),
		})
		return
	}

	cs.logger.Info("ConsumerService", "Message embedded", map[string]interface{}{"message_id": payload.MessageId})
}

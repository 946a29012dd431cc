package service

import (
	"context"
	"encoding/json"
	"sync"

	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/internal/repository/contract"
	"chat-relay-be/internal/repository/specification"
	"chat-relay-be/pkg/events"
	pktNats "chat-relay-be/pkg/nats"
)

// AnonymousSender is the effective sender recorded for unauthenticated
// connections. The sender declared on the wire is never trusted.
const AnonymousSender = "anonymous"

type IRelayService interface {
	Publish(ctx context.Context, roomId, declaredSender, text, principal string) error
	GetHistory(ctx context.Context, roomId string, limit, offset int) ([]*dto.ChatMessageResponse, error)
}

// Broadcaster fans a serialized frame out to the subscribers of one room.
// Implemented by the websocket hub.
type Broadcaster interface {
	BroadcastRoom(room string, data []byte)
}

type relayService struct {
	messageRepo      contract.ChatMessageRepository
	broadcaster      Broadcaster
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger

	// One mutex per room, held across persist + fan-out so subscribers see
	// messages in exactly the order the store assigned ids.
	roomLocks sync.Map
}

func NewRelayService(
	messageRepo contract.ChatMessageRepository,
	broadcaster Broadcaster,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IRelayService {
	return &relayService{
		messageRepo:      messageRepo,
		broadcaster:      broadcaster,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

func (s *relayService) roomLock(roomId string) *sync.Mutex {
	lock, _ := s.roomLocks.LoadOrStore(roomId, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Publish persists the message and fans it out to the room. The message is
// durable before any subscriber sees it; a failed persist means nobody sees
// it at all. Embedding and the domain event happen off the hot path.
func (s *relayService) Publish(ctx context.Context, roomId, declaredSender, text, principal string) error {
	sender := principal
	if sender == "" {
		sender = AnonymousSender
	}
	if declaredSender != "" && declaredSender != sender {
		s.logger.Debug("RelayService", "Declared sender ignored", map[string]interface{}{
			"declared":  declaredSender,
			"effective": sender,
		})
	}

	message := entity.ChatMessage{
		RoomId: roomId,
		Sender: sender,
		Text:   text,
	}

	lock := s.roomLock(roomId)
	lock.Lock()

	if err := s.messageRepo.Create(ctx, &message); err != nil {
		lock.Unlock()
		s.logger.Error("RelayService", "Message persist failed", map[string]interface{}{
			"room_id": roomId,
			"error":   err.Error(),
		})
		return err
	}

	frame, err := json.Marshal(map[string]interface{}{
		"type": "message",
		"data": dto.ChatMessageResponse{
			Id:        message.Id,
			RoomId:    message.RoomId,
			Sender:    message.Sender,
			Text:      message.Text,
			CreatedAt: message.CreatedAt,
		},
	})
	if err != nil {
		lock.Unlock()
		return err
	}

	s.broadcaster.BroadcastRoom(roomId, frame)
	lock.Unlock()

	s.dispatchAsync(&message)

	return nil
}

// dispatchAsync hands the persisted message to the embedding queue and the
// event bus. Both are fire-and-forget: a failure is logged and the message is
// never re-queued.
func (s *relayService) dispatchAsync(message *entity.ChatMessage) {
	payload, err := json.Marshal(dto.PublishEmbedChatMessage{
		MessageId: message.Id,
		RoomId:    message.RoomId,
		Sender:    message.Sender,
		Text:      message.Text,
		CreatedAt: message.CreatedAt,
	})
	if err != nil {
		s.logger.Error("RelayService", "Embed payload marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}

	go func() {
		if err := s.publisherService.Publish(context.Background(), payload); err != nil {
			s.logger.Error("RelayService", "Embed queue publish failed", map[string]interface{}{
				"message_id": message.Id,
				"error":      err.Error(),
			})
		}

		if s.eventPublisher != nil {
			evt := events.NewMessagePersisted(message.Id, message.RoomId, message.Sender, message.CreatedAt)
			if err := s.eventPublisher.Publish(context.Background(), evt); err != nil {
				s.logger.Warn("RelayService", "Event publish failed", map[string]interface{}{
					"message_id": message.Id,
					"error":      err.Error(),
				})
			}
		}
	}()
}

// GetHistory returns the room's messages in id order. Reading has no side
// effects; calling it twice returns the same rows.
func (s *relayService) GetHistory(ctx context.Context, roomId string, limit, offset int) ([]*dto.ChatMessageResponse, error) {
	specs := []specification.Specification{
		specification.ByRoom{RoomId: roomId},
		specification.OrderBy{Field: "id"},
	}
	if limit > 0 {
		specs = append(specs, specification.Pagination{Limit: limit, Offset: offset})
	}

	messages, err := s.messageRepo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, &dto.ChatMessageResponse{
			Id:        m.Id,
			RoomId:    m.RoomId,
			Sender:    m.Sender,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		})
	}
	return responses, nil
}

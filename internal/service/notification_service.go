package service

import (
	"context"
	"encoding/json"

	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/pkg/events"
	pktNats "chat-relay-be/pkg/nats"
)

type INotificationService interface {
	Start() error
}

// NotificationDelivery pushes a serialized frame to every connection of one
// principal. Implemented by the websocket hub.
type NotificationDelivery interface {
	SendToPrincipal(principal string, data []byte)
}

// notificationService listens for answered questions on the event bus and
// notifies the asking principal over its realtime connections.
type notificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(subscriber *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) INotificationService {
	return &notificationService{
		subscriber: subscriber,
		delivery:   delivery,
		logger:     log,
	}
}

func (s *notificationService) Start() error {
	subject := "events." + events.TypeQuestionAnswered
	return s.subscriber.Subscribe(subject, "qa-notifier", s.handleQuestionAnswered)
}

func (s *notificationService) handleQuestionAnswered(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	principal, _ := payload["principal"].(string)
	if principal == "" {
		// Anonymous askers have no principal index entry to deliver to.
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": map[string]interface{}{
			"event":    event.EventType(),
			"question": payload["question"],
			"answer":   payload["answer"],
		},
	})
	if err != nil {
		return err
	}

	s.delivery.SendToPrincipal(principal, data)
	s.logger.Info("NotificationService", "Answer notification delivered", map[string]interface{}{"principal": principal})
	return nil
}

package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"chat-relay-be/internal/config"
	"chat-relay-be/internal/controller"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/internal/pkg/serverutils"
	"chat-relay-be/internal/pkg/token"
	"chat-relay-be/internal/repository/implementation"
	"chat-relay-be/internal/repository/memory"
	"chat-relay-be/internal/service"
	"chat-relay-be/internal/websocket"
	"chat-relay-be/pkg/embedding"
	"chat-relay-be/pkg/llm/factory"
	pktNats "chat-relay-be/pkg/nats"
	"chat-relay-be/pkg/rag/rank"
	"chat-relay-be/pkg/rag/response"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	verifier := token.NewVerifier(cfg.Auth.JWTSecret)

	// 2. Task Queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
			cfg.Ai.EmbedTimeout,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey, cfg.Ai.EmbedTimeout)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 5. Realtime Hub + Gatekeeper
	wsLogger := logger.NewIsolatedLogger("logs/realtime.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	sessionRepo := memory.NewSessionRepository()

	// 6. Repositories
	messageRepo := implementation.NewChatMessageRepository(db)
	embeddingRepo := implementation.NewMessageEmbeddingRepository(db)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Ai.EmbedTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ai.EmbedTopic,
		embeddingRepo,
		embeddingProvider,
		cfg.Ai.EmbedTimeout,
		sysLogger,
	)

	relayService := service.NewRelayService(messageRepo, wsHub, publisherService, natsPub, sysLogger)

	ranker := rank.NewRanker(service.NewRepositoryVectorIndex(embeddingRepo))
	generator := response.NewGenerator(llmProvider, initLLMLogger())
	answerService := service.NewAnswerService(
		embeddingProvider,
		ranker,
		generator,
		natsPub,
		sysLogger,
		cfg.Ai.EmbedTimeout,
		cfg.Ai.GenerateTimeout,
		cfg.Ai.AnswerTopK,
	)

	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go func() {
			if err := notifService.Start(); err != nil {
				sysLogger.Warn("Bootstrap", "Notification worker failed to start", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	gatekeeper := websocket.NewGatekeeper(verifier, sessionRepo, relayService, wsLogger)
	jwtMiddleware := serverutils.NewJwtMiddleware(verifier)

	// 8. Controllers
	return &Container{
		ChatController:  controller.NewChatController(relayService, answerService, wsHub, gatekeeper, jwtMiddleware),
		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
	}
}

func initLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_answer.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

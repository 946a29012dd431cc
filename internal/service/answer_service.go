package service

import (
	"context"
	"time"

	"chat-relay-be/internal/dto"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/pkg/embedding"
	"chat-relay-be/pkg/events"
	pktNats "chat-relay-be/pkg/nats"
	"chat-relay-be/pkg/rag/prompt"
	"chat-relay-be/pkg/rag/rank"
	"chat-relay-be/pkg/rag/response"
)

type IAnswerService interface {
	Ask(ctx context.Context, principal, question string, topK int) (*dto.AskResponse, error)
}

// answerService runs the retrieval-augmented answer pipeline: embed the
// question, rank stored message vectors, build a grounded prompt, generate.
// It degrades instead of failing: every exit produces an answer string.
type answerService struct {
	embeddingProvider embedding.EmbeddingProvider
	ranker            *rank.Ranker
	generator         *response.Generator
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger

	embedTimeout    time.Duration
	generateTimeout time.Duration
	defaultTopK     int
}

func NewAnswerService(
	embeddingProvider embedding.EmbeddingProvider,
	ranker *rank.Ranker,
	generator *response.Generator,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	embedTimeout, generateTimeout time.Duration,
	defaultTopK int,
) IAnswerService {
	return &answerService{
		embeddingProvider: embeddingProvider,
		ranker:            ranker,
		generator:         generator,
		eventPublisher:    eventPublisher,
		logger:            log,
		embedTimeout:      embedTimeout,
		generateTimeout:   generateTimeout,
		defaultTopK:       defaultTopK,
	}
}

func (s *answerService) Ask(ctx context.Context, principal, question string, topK int) (*dto.AskResponse, error) {
	if topK <= 0 {
		topK = s.defaultTopK
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	queryEmbedding, err := s.embeddingProvider.Generate(embedCtx, question, embedding.TaskQuery)
	if err != nil {
		s.logger.Error("AnswerService", "Query embedding failed", map[string]interface{}{"error": err.Error()})
		return &dto.AskResponse{Answer: response.CouldNotAnswer}, nil
	}

	// The full scan hits the vector store; bound it like every other external
	// call so a hung connection cannot hang the ask request.
	scanCtx, cancelScan := context.WithTimeout(ctx, s.embedTimeout)
	defer cancelScan()

	matches, err := s.ranker.Rank(scanCtx, queryEmbedding.Embedding.Values, topK)
	if err != nil {
		s.logger.Error("AnswerService", "Vector scan failed", map[string]interface{}{"error": err.Error()})
		return &dto.AskResponse{Answer: response.CouldNotAnswer}, nil
	}

	promptText := prompt.NewGroundedBuilder(question, matches).Build()

	generateCtx, cancel := context.WithTimeout(ctx, s.generateTimeout)
	defer cancel()

	answer := s.generator.Generate(generateCtx, promptText)

	s.publishAnswered(principal, question, answer)

	return &dto.AskResponse{
		Answer:  answer,
		Sources: toSourceDTOs(matches),
	}, nil
}

// publishAnswered emits the question-answered event. Auxiliary: failures are
// logged and the answer is returned regardless.
func (s *answerService) publishAnswered(principal, question, answer string) {
	if s.eventPublisher == nil {
		return
	}
	go func() {
		evt := events.NewQuestionAnswered(principal, question, answer)
		if err := s.eventPublisher.Publish(context.Background(), evt); err != nil {
			s.logger.Warn("AnswerService", "Event publish failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func toSourceDTOs(matches []rank.SimilarMessage) []dto.SourceDTO {
	sources := make([]dto.SourceDTO, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, dto.SourceDTO{
			Sender:    m.Sender,
			Text:      m.Text,
			Score:     m.Score,
			CreatedAt: m.CreatedAt,
		})
	}
	return sources
}

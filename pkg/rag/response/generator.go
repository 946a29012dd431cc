package response

import (
	"context"
	"log"
	"strings"

	"chat-relay-be/pkg/llm"
)

// FallbackAnswer is returned whenever the generation model fails or produces
// no output. The answer path must always resolve with some text.
const FallbackAnswer = "Sorry, an error occurred while generating the answer. Please try again later."

// CouldNotAnswer is the degraded reply when the question itself could not be
// processed (e.g. the query embedding failed).
const CouldNotAnswer = "Sorry, I could not process your question right now. Please try again later."

// Generator wraps the LLM call and absorbs its failures into a fixed fallback.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Generate sends the prompt to the generation model and returns the raw text.
// On error or empty output it returns FallbackAnswer, never an error.
func (g *Generator) Generate(ctx context.Context, promptText string) string {
	answer, err := g.llmProvider.Generate(ctx, promptText)
	if err != nil {
		g.logger.Printf("[ERROR] LLM generation failed: %v", err)
		return FallbackAnswer
	}
	if strings.TrimSpace(answer) == "" {
		g.logger.Printf("[ERROR] LLM returned empty output")
		return FallbackAnswer
	}
	return answer
}

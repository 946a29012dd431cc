package embedding

import "context"

// Task types understood by providers that distinguish document vs query
// embeddings. Providers that don't differentiate ignore the hint.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings.
// Query and candidate vectors must come from the same provider or similarity
// is meaningless.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

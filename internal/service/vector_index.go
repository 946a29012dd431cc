package service

import (
	"context"

	"chat-relay-be/internal/repository/contract"
	"chat-relay-be/pkg/rag/rank"
)

// repositoryVectorIndex adapts the embedding repository to the ranker's scan
// contract. It reads every stored vector; swapping in an approximate index
// later only means providing another implementation of rank.VectorIndex.
type repositoryVectorIndex struct {
	embeddingRepo contract.MessageEmbeddingRepository
}

func NewRepositoryVectorIndex(embeddingRepo contract.MessageEmbeddingRepository) rank.VectorIndex {
	return &repositoryVectorIndex{embeddingRepo: embeddingRepo}
}

func (idx *repositoryVectorIndex) ScanAll(ctx context.Context) ([]rank.StoredVector, error) {
	records, err := idx.embeddingRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	vectors := make([]rank.StoredVector, 0, len(records))
	for _, r := range records {
		vectors = append(vectors, rank.StoredVector{
			RoomId:    r.RoomId,
			Sender:    r.Sender,
			Text:      r.Document,
			Vector:    r.EmbeddingValue,
			CreatedAt: r.MessageCreatedAt,
		})
	}
	return vectors, nil
}

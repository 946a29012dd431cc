package rank

import (
	"context"
	"math"
	"sort"
	"time"
)

// StoredVector is one candidate read out of the vector index.
type StoredVector struct {
	RoomId    string
	Sender    string
	Text      string
	Vector    []float32
	CreatedAt time.Time
}

// VectorIndex abstracts the vector store scan so the full-scan ranker can be
// swapped for an approximate nearest-neighbor index without touching the
// ranking contract.
type VectorIndex interface {
	ScanAll(ctx context.Context) ([]StoredVector, error)
}

// SimilarMessage is a ranked match. Score is cosine similarity in [-1, 1].
type SimilarMessage struct {
	Sender    string
	Text      string
	CreatedAt time.Time
	Score     float64
}

type Ranker struct {
	index VectorIndex
}

func NewRanker(index VectorIndex) *Ranker {
	return &Ranker{index: index}
}

// Rank scans every stored vector, scores it against the query by cosine
// similarity and returns at most k matches in descending score order. Ties
// keep the scan order of the index (no secondary key is defined). An empty
// index yields an empty result, not an error.
func (r *Ranker) Rank(ctx context.Context, query []float32, k int) ([]SimilarMessage, error) {
	if k <= 0 {
		return []SimilarMessage{}, nil
	}

	candidates, err := r.index.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]SimilarMessage, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, SimilarMessage{
			Sender:    c.Sender,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
			Score:     Cosine(query, c.Vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Cosine computes dot(a, b) / (‖a‖ * ‖b‖). A zero vector (or a dimensionality
// mismatch) has no defined similarity and scores 0 instead of NaN.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

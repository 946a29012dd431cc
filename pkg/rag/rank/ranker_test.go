package rank

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeIndex struct {
	vectors []StoredVector
	err     error
}

func (f *fakeIndex) ScanAll(ctx context.Context) ([]StoredVector, error) {
	return f.vectors, f.err
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Magnitude does not matter, only direction.
	assert.InDelta(t, 1.0, Cosine([]float32{2, 2}, []float32{5, 5}), 1e-9)
}

func TestCosineDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 1}, []float32{0, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2, 3}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	now := time.Now()
	index := &fakeIndex{vectors: []StoredVector{
		{Sender: "alice", Text: "orthogonal", Vector: []float32{0, 1}, CreatedAt: now},
		{Sender: "bob", Text: "exact", Vector: []float32{1, 0}, CreatedAt: now},
		{Sender: "carol", Text: "diagonal", Vector: []float32{1, 1}, CreatedAt: now},
	}}

	matches, err := NewRanker(index).Rank(context.Background(), []float32{1, 0}, 3)
	assert.NoError(t, err)
	assert.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].Text)
	assert.Equal(t, "diagonal", matches[1].Text)
	assert.Equal(t, "orthogonal", matches[2].Text)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
}

func TestRankTruncatesToK(t *testing.T) {
	index := &fakeIndex{vectors: []StoredVector{
		{Text: "a", Vector: []float32{1, 0}},
		{Text: "b", Vector: []float32{1, 1}},
		{Text: "c", Vector: []float32{0, 1}},
	}}

	matches, err := NewRanker(index).Rank(context.Background(), []float32{1, 0}, 2)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].Text)
}

func TestRankEmptyIndex(t *testing.T) {
	matches, err := NewRanker(&fakeIndex{}).Rank(context.Background(), []float32{1, 0}, 5)
	assert.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRankNonPositiveK(t *testing.T) {
	index := &fakeIndex{vectors: []StoredVector{{Text: "a", Vector: []float32{1}}}}

	matches, err := NewRanker(index).Rank(context.Background(), []float32{1}, 0)
	assert.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRankPropagatesScanError(t *testing.T) {
	index := &fakeIndex{err: errors.New("connection refused")}

	_, err := NewRanker(index).Rank(context.Background(), []float32{1}, 3)
	assert.Error(t, err)
}

func TestRankZeroQueryVectorScoresZero(t *testing.T) {
	index := &fakeIndex{vectors: []StoredVector{{Text: "a", Vector: []float32{1, 2}}}}

	matches, err := NewRanker(index).Rank(context.Background(), []float32{0, 0}, 1)
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, 0.0, matches[0].Score)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"chat-relay-be/internal/entity"
	"chat-relay-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type fakeMessageRepo struct {
	mu       sync.Mutex
	nextId   int64
	messages []entity.ChatMessage
	err      error
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.nextId++
	message.Id = r.nextId
	message.CreatedAt = time.Now()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*entity.ChatMessage, 0, len(r.messages))
	for i := range r.messages {
		m := r.messages[i]
		out = append(out, &m)
	}
	return out, nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	frames map[string][][]byte
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{frames: make(map[string][][]byte)}
}

func (b *fakeBroadcaster) BroadcastRoom(room string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames[room] = append(b.frames[room], data)
}

func (b *fakeBroadcaster) roomFrames(room string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.frames[room]...)
}

type fakeQueue struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (q *fakeQueue) Publish(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, payload)
	return nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.payloads)
}

func newTestRelay(repo *fakeMessageRepo, b *fakeBroadcaster, q *fakeQueue) IRelayService {
	return NewRelayService(repo, b, q, nil, nopLogger{})
}

func decodeFrame(t *testing.T, raw []byte) (string, map[string]interface{}) {
	t.Helper()
	var frame struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(raw, &frame))
	return frame.Type, frame.Data
}

func TestPublishUsesPrincipalAsSender(t *testing.T) {
	repo := &fakeMessageRepo{}
	broadcaster := newFakeBroadcaster()
	svc := newTestRelay(repo, broadcaster, &fakeQueue{})

	err := svc.Publish(context.Background(), "room-1", "mallory", "hello", "alice")
	assert.NoError(t, err)

	assert.Len(t, repo.messages, 1)
	assert.Equal(t, "alice", repo.messages[0].Sender)

	frames := broadcaster.roomFrames("room-1")
	assert.Len(t, frames, 1)
	frameType, data := decodeFrame(t, frames[0])
	assert.Equal(t, "message", frameType)
	assert.Equal(t, "alice", data["sender"])
	assert.Equal(t, "hello", data["text"])
}

func TestPublishAnonymousSender(t *testing.T) {
	repo := &fakeMessageRepo{}
	broadcaster := newFakeBroadcaster()
	svc := newTestRelay(repo, broadcaster, &fakeQueue{})

	err := svc.Publish(context.Background(), "room-1", "self-declared", "hi", "")
	assert.NoError(t, err)

	assert.Equal(t, AnonymousSender, repo.messages[0].Sender)
}

func TestPublishPersistFailureMeansNoFanout(t *testing.T) {
	repo := &fakeMessageRepo{err: errors.New("db down")}
	broadcaster := newFakeBroadcaster()
	queue := &fakeQueue{}
	svc := newTestRelay(repo, broadcaster, queue)

	err := svc.Publish(context.Background(), "room-1", "", "hello", "alice")
	assert.Error(t, err)

	assert.Empty(t, broadcaster.roomFrames("room-1"))
	assert.Equal(t, 0, queue.count())
}

func TestPublishAssignsMonotonicIdsInFanoutOrder(t *testing.T) {
	repo := &fakeMessageRepo{}
	broadcaster := newFakeBroadcaster()
	svc := newTestRelay(repo, broadcaster, &fakeQueue{})

	for _, text := range []string{"first", "second", "third"} {
		assert.NoError(t, svc.Publish(context.Background(), "room-1", "", text, "alice"))
	}

	frames := broadcaster.roomFrames("room-1")
	assert.Len(t, frames, 3)
	for i, raw := range frames {
		_, data := decodeFrame(t, raw)
		assert.Equal(t, float64(i+1), data["id"])
	}
}

func TestPublishQueuesEmbedTask(t *testing.T) {
	repo := &fakeMessageRepo{}
	queue := &fakeQueue{}
	svc := newTestRelay(repo, newFakeBroadcaster(), queue)

	assert.NoError(t, svc.Publish(context.Background(), "room-1", "", "hello", "alice"))

	// The embed task is dispatched off the hot path.
	assert.Eventually(t, func() bool {
		return queue.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublishSucceedsWhenEmbedQueueFails(t *testing.T) {
	repo := &fakeMessageRepo{}
	broadcaster := newFakeBroadcaster()
	queue := &fakeQueue{err: errors.New("queue closed")}
	svc := newTestRelay(repo, broadcaster, queue)

	err := svc.Publish(context.Background(), "room-1", "", "hello", "alice")
	assert.NoError(t, err)
	assert.Len(t, broadcaster.roomFrames("room-1"), 1)
}

func TestGetHistoryIsIdempotent(t *testing.T) {
	repo := &fakeMessageRepo{}
	svc := newTestRelay(repo, newFakeBroadcaster(), &fakeQueue{})

	assert.NoError(t, svc.Publish(context.Background(), "room-1", "", "hello", "alice"))
	assert.NoError(t, svc.Publish(context.Background(), "room-1", "", "world", "bob"))

	first, err := svc.GetHistory(context.Background(), "room-1", 50, 0)
	assert.NoError(t, err)
	second, err := svc.GetHistory(context.Background(), "room-1", 50, 0)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
	assert.Equal(t, "alice", first[0].Sender)
	assert.Equal(t, int64(1), first[0].Id)
}

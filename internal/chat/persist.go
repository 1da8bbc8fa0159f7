package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/set-night/streamchat/internal/domain"
)

// LocalSlot is the fixed key under which an anonymous transcript is kept.
const LocalSlot = "anonymousChat"

// Store is the durable persistence collaborator for signed-in owners.
type Store interface {
	ListSessions(ctx context.Context, ownerID string) ([]domain.SessionInfo, error)
	CreateSession(ctx context.Context, ownerID, name string) (string, error)
	DeleteSession(ctx context.Context, ownerID, id string) error
	SaveMessages(ctx context.Context, ownerID, id string, msgs []domain.Message) error
}

// LocalStore holds serialized anonymous transcripts. Load returns nil, nil for a missing key.
type LocalStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// target is where a session's transcript is written. It is picked once, when the
// session is created, from the owner's identity.
type target interface {
	save(ctx context.Context, msgs []domain.Message) error
}

type durableTarget struct {
	store   Store
	ownerID string
	id      string
}

func (t durableTarget) save(ctx context.Context, msgs []domain.Message) error {
	return t.store.SaveMessages(ctx, t.ownerID, t.id, msgs)
}

type localTarget struct {
	store LocalStore
	key   string
}

func (t localTarget) save(ctx context.Context, msgs []domain.Message) error {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	return t.store.Save(ctx, t.key, data)
}

func loadLocal(ctx context.Context, store LocalStore, key string) ([]domain.Message, error) {
	data, err := store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load local transcript: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var msgs []domain.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode local transcript: %w", err)
	}
	return msgs, nil
}

// writeQueue runs writes in the order they were enqueued. Enqueue never blocks; each
// write starts only after the previous one has finished.
type writeQueue struct {
	mu   sync.Mutex
	tail chan struct{}
}

func (q *writeQueue) enqueue(ctx context.Context, fn func(context.Context) error) <-chan error {
	q.mu.Lock()
	prev := q.tail
	done := make(chan struct{})
	q.tail = done
	q.mu.Unlock()

	result := make(chan error, 1)
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		result <- fn(ctx)
	}()
	return result
}

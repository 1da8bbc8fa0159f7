package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/set-night/streamchat/internal/domain"
)

func frame(content string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]any{"content": content}}},
	})
	return []byte("data: " + string(payload) + "\n\n")
}

var doneChunk = []byte("data: [DONE]\n\n")

// chunkedBody returns exactly one chunk per Read.
type chunkedBody struct {
	chunks [][]byte
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks = b.chunks[1:]
	return n, nil
}

func (b *chunkedBody) Close() error { return nil }

// pipeBody delivers chunks as the test sends them.
type pipeBody struct {
	ch     chan []byte
	closed chan struct{}
	once   sync.Once
}

func newPipeBody() *pipeBody {
	return &pipeBody{ch: make(chan []byte, 16), closed: make(chan struct{})}
}

func (b *pipeBody) Read(p []byte) (int, error) {
	select {
	case c, ok := <-b.ch:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, c), nil
	case <-b.closed:
		return 0, io.ErrClosedPipe
	}
}

func (b *pipeBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func (b *pipeBody) isClosed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

type fakeCompleter struct {
	mu       sync.Mutex
	requests [][]domain.Message
	open     func(ctx context.Context) (io.ReadCloser, error)
}

func (f *fakeCompleter) OpenStream(ctx context.Context, msgs []domain.Message) (io.ReadCloser, error) {
	f.mu.Lock()
	f.requests = append(f.requests, domain.CloneMessages(msgs))
	f.mu.Unlock()
	return f.open(ctx)
}

func (f *fakeCompleter) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func streamOf(chunks ...[]byte) *fakeCompleter {
	return &fakeCompleter{open: func(context.Context) (io.ReadCloser, error) {
		return &chunkedBody{chunks: chunks}, nil
	}}
}

func pipeCompleter(body *pipeBody) *fakeCompleter {
	return &fakeCompleter{open: func(context.Context) (io.ReadCloser, error) {
		return body, nil
	}}
}

type saveCall struct {
	id   string
	msgs []domain.Message
}

type memStore struct {
	mu       sync.Mutex
	sessions []domain.SessionInfo
	saves    []saveCall
	saveErr  error
	nextID   int
}

func (s *memStore) ListSessions(_ context.Context, _ string) ([]domain.SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SessionInfo, len(s.sessions))
	for i, info := range s.sessions {
		info.Messages = domain.CloneMessages(info.Messages)
		out[i] = info
	}
	return out, nil
}

func (s *memStore) CreateSession(_ context.Context, _ string, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("s%d", s.nextID)
	s.sessions = append(s.sessions, domain.SessionInfo{ID: id, Name: name})
	return id, nil
}

func (s *memStore) DeleteSession(_ context.Context, _ string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, info := range s.sessions {
		if info.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return nil
		}
	}
	return domain.ErrSessionNotFound
}

func (s *memStore) SaveMessages(_ context.Context, _ string, id string, msgs []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, saveCall{id: id, msgs: domain.CloneMessages(msgs)})
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].Messages = domain.CloneMessages(msgs)
		}
	}
	return nil
}

func (s *memStore) messages(id string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, info := range s.sessions {
		if info.ID == id {
			return domain.CloneMessages(info.Messages)
		}
	}
	return nil
}

type memLocal struct {
	mu      sync.Mutex
	data    map[string][]byte
	writes  [][]byte
	saveErr error
}

func newMemLocal() *memLocal {
	return &memLocal{data: make(map[string][]byte)}
}

func (l *memLocal) Load(_ context.Context, key string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.data[key], nil
}

func (l *memLocal) Save(_ context.Context, key string, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.saveErr != nil {
		return l.saveErr
	}
	l.data[key] = data
	l.writes = append(l.writes, data)
	return nil
}

// history decodes every write in order.
func (l *memLocal) history(t *testing.T) [][]domain.Message {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]domain.Message, 0, len(l.writes))
	for _, w := range l.writes {
		var msgs []domain.Message
		require.NoError(t, json.Unmarshal(w, &msgs))
		out = append(out, msgs)
	}
	return out
}

// current decodes the slot without failing on an empty one.
func (l *memLocal) current(t *testing.T) []domain.Message {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	var msgs []domain.Message
	if data := l.data[LocalSlot]; len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &msgs))
	}
	return msgs
}

func (l *memLocal) slot(t *testing.T) []domain.Message {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	var msgs []domain.Message
	if err := json.Unmarshal(l.data[LocalSlot], &msgs); err != nil {
		t.Fatalf("decode slot: %v", err)
	}
	return msgs
}

type recorder struct {
	mu      sync.Mutex
	updates []Update
	notify  chan Update
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan Update, 256)}
}

func (r *recorder) Publish(u Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
	select {
	case r.notify <- u:
	default:
	}
}

func (r *recorder) all() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

// waitFor blocks until an update satisfying match is published.
func (r *recorder) waitFor(t *testing.T, match func(Update) bool) Update {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case u := <-r.notify:
			if match(u) {
				return u
			}
		case <-timeout:
			t.Fatal("timed out waiting for update")
			return Update{}
		}
	}
}

func lastContent(u Update) string {
	if len(u.Messages) == 0 {
		return ""
	}
	return u.Messages[len(u.Messages)-1].Content
}

var errDisk = errors.New("disk full")

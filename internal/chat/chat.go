// Package chat assembles streamed completions into a session transcript and keeps
// that transcript in step with its persistence target.
package chat

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/set-night/streamchat/internal/domain"
)

type State int

const (
	StateIdle State = iota
	StateSendingRequest
	StateStreaming
	StateFinalizing
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateSendingRequest:
		return "sending_request"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateAbandoned:
		return "abandoned"
	default:
		return "idle"
	}
}

// Update is a read-only snapshot published after every transcript change.
type Update struct {
	SessionID string
	Messages  []domain.Message
	Streaming bool
}

// Observer receives updates in mutation order. Publish is called with the chat lock
// held, so it must return quickly and must not call back into the Chat.
type Observer interface {
	Publish(Update)
}

type ObserverFunc func(Update)

func (f ObserverFunc) Publish(u Update) { f(u) }

// Completer opens a streaming completion for the given history.
type Completer interface {
	OpenStream(ctx context.Context, msgs []domain.Message) (io.ReadCloser, error)
}

type Options struct {
	SystemPrompt     string
	MaxLength        int
	TruncationNotice string
	IdleTimeout      time.Duration
}

type Deps struct {
	Identity  domain.Identity
	Completer Completer
	Store     Store
	Local     LocalStore
	Observer  Observer
}

type session struct {
	info       domain.SessionInfo
	transcript *Transcript
	target     target
}

// local reports whether the session lives in the local slot, which mirrors every
// transcript change rather than only completed turns.
func (s *session) local() bool {
	_, ok := s.target.(localTarget)
	return ok
}

// Chat owns the active session of one conversation surface and drives at most one
// stream at a time.
type Chat struct {
	opts      Options
	identity  domain.Identity
	completer Completer
	store     Store
	local     LocalStore
	observer  Observer

	mu       sync.Mutex
	sessions []domain.SessionInfo
	active   *session
	stream   *streamState
	queues   map[string]*writeQueue
}

func New(opts Options, deps Deps) *Chat {
	return &Chat{
		opts:      opts,
		identity:  deps.Identity,
		completer: deps.Completer,
		store:     deps.Store,
		local:     deps.Local,
		observer:  deps.Observer,
		queues:    make(map[string]*writeQueue),
	}
}

func (c *Chat) Identity() domain.Identity {
	return c.identity
}

// Open loads the starting state: the local slot for anonymous chats, the session
// list for signed-in owners.
func (c *Chat) Open(ctx context.Context) error {
	if c.identity.IsAnonymous() {
		msgs, err := loadLocal(ctx, c.local, LocalSlot)
		if err != nil {
			return err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		c.active = c.newSession(domain.SessionInfo{}, msgs)
		c.publishLocked(false)
		return nil
	}

	list, err := c.store.ListSessions(ctx, c.identity.OwnerID)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	c.mu.Lock()
	c.sessions = list
	c.mu.Unlock()
	return nil
}

// Sessions returns the known durable sessions of the owner.
func (c *Chat) Sessions() []domain.SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.SessionInfo, len(c.sessions))
	for i, s := range c.sessions {
		s.Messages = domain.CloneMessages(s.Messages)
		out[i] = s
	}
	return out
}

// ActiveSession reports the selected session, if any. Anonymous chats report an empty id.
func (c *Chat) ActiveSession() (domain.SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.SessionInfo{}, false
	}
	return c.active.info, true
}

func (c *Chat) Snapshot() Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateLocked(c.stream != nil)
}

func (c *Chat) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return StateIdle
	}
	return c.stream.state
}

// Create starts a new named session and makes it active. For anonymous chats it
// resets the local transcript instead.
func (c *Chat) Create(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyInput
	}

	if c.identity.IsAnonymous() {
		c.mu.Lock()
		c.abandonLocked()
		c.active = c.newSession(domain.SessionInfo{}, nil)
		saved := c.persistLocked(ctx, c.active, nil)
		c.publishLocked(false)
		c.mu.Unlock()
		return <-saved
	}

	id, err := c.store.CreateSession(ctx, c.identity.OwnerID, name)
	if err != nil {
		return &domain.PersistenceError{Err: fmt.Errorf("create session: %w", err)}
	}
	now := time.Now()
	info := domain.SessionInfo{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = append(c.sessions, info)
	c.abandonLocked()
	c.active = c.newSession(info, nil)
	c.publishLocked(false)
	return nil
}

// Select makes the stored session id active, abandoning any stream in flight.
func (c *Chat) Select(ctx context.Context, id string) error {
	if c.identity.IsAnonymous() {
		return domain.ErrAnonymous
	}

	c.mu.Lock()
	info, ok := c.findLocked(id)
	c.mu.Unlock()

	if !ok {
		list, err := c.store.ListSessions(ctx, c.identity.OwnerID)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		c.mu.Lock()
		c.sessions = list
		info, ok = c.findLocked(id)
		c.mu.Unlock()
		if !ok {
			return domain.ErrSessionNotFound
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked()
	c.active = c.newSession(info, info.Messages)
	c.publishLocked(false)
	return nil
}

// Delete removes a stored session. Deleting the active session leaves no session active.
// The store call runs after the session's pending writes so none of them lands on a
// deleted row.
func (c *Chat) Delete(ctx context.Context, id string) error {
	if c.identity.IsAnonymous() {
		return domain.ErrAnonymous
	}

	c.mu.Lock()
	if c.active != nil && c.active.info.ID == id {
		c.abandonLocked()
		c.active = nil
		c.publishLocked(false)
	}
	store, owner := c.store, c.identity.OwnerID
	deleted := c.queueLocked(id).enqueue(ctx, func(ctx context.Context) error {
		return store.DeleteSession(ctx, owner, id)
	})
	c.mu.Unlock()

	if err := <-deleted; err != nil {
		return &domain.PersistenceError{SessionID: id, Err: fmt.Errorf("delete session: %w", err)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = slices.DeleteFunc(c.sessions, func(s domain.SessionInfo) bool { return s.ID == id })
	return nil
}

// Clear empties the active transcript and persists the empty history.
func (c *Chat) Clear(ctx context.Context) error {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return domain.ErrNoActiveSession
	}
	c.abandonLocked()
	c.active.transcript.Reset()
	saved := c.persistLocked(ctx, c.active, nil)
	c.publishLocked(false)
	c.mu.Unlock()
	return <-saved
}

// Close abandons the stream in flight, if any. The chat stays usable.
func (c *Chat) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.abandonLocked()
}

func (c *Chat) newSession(info domain.SessionInfo, msgs []domain.Message) *session {
	s := &session{info: info, transcript: NewTranscript(msgs)}
	if c.identity.IsAnonymous() {
		s.target = localTarget{store: c.local, key: LocalSlot}
	} else {
		s.target = durableTarget{store: c.store, ownerID: c.identity.OwnerID, id: info.ID}
	}
	return s
}

func (c *Chat) findLocked(id string) (domain.SessionInfo, bool) {
	for _, s := range c.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return domain.SessionInfo{}, false
}

// persistLocked enqueues a write of msgs for s and mirrors it into the cached
// session list. The returned channel yields the write's result.
func (c *Chat) persistLocked(ctx context.Context, s *session, msgs []domain.Message) <-chan error {
	id := s.info.ID
	for i := range c.sessions {
		if c.sessions[i].ID == id {
			c.sessions[i].Messages = domain.CloneMessages(msgs)
			c.sessions[i].UpdatedAt = time.Now()
		}
	}

	tgt := s.target
	return c.queueLocked(id).enqueue(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := tgt.save(ctx, msgs); err != nil {
			return &domain.PersistenceError{SessionID: id, Err: err}
		}
		return nil
	})
}

func (c *Chat) queueLocked(id string) *writeQueue {
	q, ok := c.queues[id]
	if !ok {
		q = &writeQueue{}
		c.queues[id] = q
	}
	return q
}

func (c *Chat) updateLocked(streaming bool) Update {
	u := Update{Streaming: streaming}
	if c.active != nil {
		u.SessionID = c.active.info.ID
		u.Messages = c.active.transcript.Snapshot()
	}
	return u
}

func (c *Chat) publishLocked(streaming bool) {
	if c.observer == nil {
		return
	}
	c.observer.Publish(c.updateLocked(streaming))
}

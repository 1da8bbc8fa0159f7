package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/set-night/streamchat/internal/domain"
	"github.com/set-night/streamchat/internal/markup"
)

const readBufferSize = 32 * 1024

// streamState is the bookkeeping of one in-flight assistant reply. Only the Chat
// that created it may touch it, and only while it is the Chat's current stream.
type streamState struct {
	session *session
	state   State
	raw     strings.Builder
	target  int
	cancel  context.CancelCauseFunc
	saves   []<-chan error
}

type chunk struct {
	data []byte
	err  error
}

// Submit appends text as a user message and streams the assistant reply into the
// active transcript. It returns once the reply is finalized or the stream is abandoned.
func (c *Chat) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyInput
	}

	c.mu.Lock()
	sess := c.active
	if sess == nil {
		c.mu.Unlock()
		return domain.ErrNoActiveSession
	}
	if c.stream != nil {
		c.mu.Unlock()
		return domain.ErrStreamBusy
	}

	sess.transcript.Append(domain.Message{Role: domain.RoleUser, Content: text})
	history := sess.transcript.Snapshot()
	streamCtx, cancel := context.WithCancelCause(ctx)
	st := &streamState{session: sess, state: StateSendingRequest, target: -1, cancel: cancel}
	c.stream = st
	saved := c.persistLocked(ctx, sess, history)
	c.publishLocked(true)
	c.mu.Unlock()
	defer cancel(nil)

	finalSaved, err := c.run(streamCtx, st, history)
	return errors.Join(err, <-saved, waitAll(st.saves), wait(finalSaved))
}

func (c *Chat) run(ctx context.Context, st *streamState, history []domain.Message) (<-chan error, error) {
	body, err := c.completer.OpenStream(ctx, c.requestMessages(history))
	if err != nil {
		if !c.abandon(st) {
			return nil, domain.ErrStreamAbandoned
		}
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) {
			return nil, upErr
		}
		return nil, &domain.UpstreamError{Err: err}
	}
	defer body.Close()

	if !c.beginStreaming(st) {
		return nil, domain.ErrStreamAbandoned
	}

	chunks := make(chan chunk)
	stop := make(chan struct{})
	defer close(stop)
	go readChunks(body, chunks, stop)

	var idle <-chan time.Time
	var timer *time.Timer
	if c.opts.IdleTimeout > 0 {
		timer = time.NewTimer(c.opts.IdleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	var dec frameDecoder
	for {
		select {
		case <-ctx.Done():
			cause := context.Cause(ctx)
			if errors.Is(cause, domain.ErrStreamAbandoned) {
				return nil, domain.ErrStreamAbandoned
			}
			return c.finalizeWithError(st, cause)
		case <-idle:
			return c.finalizeWithError(st, domain.ErrIdleTimeout)
		case ch, ok := <-chunks:
			if !ok {
				if !c.apply(st, dec.flush()) {
					return nil, domain.ErrStreamAbandoned
				}
				return c.finalize(st)
			}
			if ch.err != nil {
				return c.finalizeWithError(st, ch.err)
			}
			if timer != nil {
				timer.Reset(c.opts.IdleTimeout)
			}
			res := dec.feed(ch.data)
			if !c.apply(st, res) {
				return nil, domain.ErrStreamAbandoned
			}
			if res.done {
				return c.finalize(st)
			}
		}
	}
}

func (c *Chat) requestMessages(history []domain.Message) []domain.Message {
	if c.opts.SystemPrompt == "" {
		return history
	}
	msgs := make([]domain.Message, 0, len(history)+1)
	msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: c.opts.SystemPrompt})
	return append(msgs, history...)
}

// beginStreaming appends the empty assistant placeholder the stream will fill in.
func (c *Chat) beginStreaming(st *streamState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != st {
		return false
	}
	st.state = StateStreaming
	st.target = st.session.transcript.Append(domain.Message{Role: domain.RoleAssistant})
	c.mirrorLocked(st)
	c.publishLocked(true)
	return true
}

// apply folds one chunk's frames into the placeholder. It publishes at most once
// and reports false once the stream has been abandoned.
func (c *Chat) apply(st *streamState, res frameResult) bool {
	for _, err := range res.errors {
		slog.Warn("skip malformed frame", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != st {
		return false
	}
	if res.text == "" {
		return true
	}
	st.raw.WriteString(res.text)
	msg := domain.Message{Role: domain.RoleAssistant, Content: markup.Format(st.raw.String())}
	if err := st.session.transcript.Replace(st.target, msg); err != nil {
		slog.Error("update streaming message", "error", err)
		return true
	}
	c.mirrorLocked(st)
	c.publishLocked(true)
	return true
}

// mirrorLocked writes the in-progress transcript of a local session.
func (c *Chat) mirrorLocked(st *streamState) {
	if !st.session.local() {
		return
	}
	st.saves = append(st.saves, c.persistLocked(context.Background(), st.session, st.session.transcript.Snapshot()))
}

// finalize writes the formatted reply, adds the truncation notice when the reply
// reached the length bound, and queues the final save.
func (c *Chat) finalize(st *streamState) (<-chan error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != st {
		return nil, domain.ErrStreamAbandoned
	}
	st.state = StateFinalizing
	c.stream = nil

	var saved <-chan error
	if raw := st.raw.String(); raw != "" {
		content := markup.Format(raw)
		if c.opts.MaxLength > 0 && textLength(content) >= c.opts.MaxLength {
			content += c.opts.TruncationNotice
		}
		msg := domain.Message{Role: domain.RoleAssistant, Content: content}
		if err := st.session.transcript.Replace(st.target, msg); err != nil {
			slog.Error("finalize message", "error", err)
		}
		saved = c.persistLocked(context.Background(), st.session, st.session.transcript.Snapshot())
	}
	st.state = StateIdle
	c.publishLocked(false)
	return saved, nil
}

// finalizeWithError keeps whatever arrived before the stream broke and reports cause.
func (c *Chat) finalizeWithError(st *streamState, cause error) (<-chan error, error) {
	saved, err := c.finalize(st)
	if err != nil {
		return nil, err
	}
	slog.Warn("stream ended early", "error", cause)
	return saved, &domain.UpstreamError{Err: cause}
}

// abandon drops st after a failed request. Only the user message stays.
func (c *Chat) abandon(st *streamState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != st {
		return false
	}
	st.state = StateAbandoned
	c.stream = nil
	c.publishLocked(false)
	return true
}

func (c *Chat) abandonLocked() {
	if c.stream == nil {
		return
	}
	c.stream.state = StateAbandoned
	c.stream.cancel(domain.ErrStreamAbandoned)
	c.stream = nil
}

// textLength counts UTF-16 code units, the unit the length bound is expressed in.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func readChunks(body io.Reader, out chan<- chunk, stop <-chan struct{}) {
	defer close(out)
	for {
		buf := make([]byte, readBufferSize)
		n, err := body.Read(buf)
		if n > 0 {
			select {
			case out <- chunk{data: buf[:n]}:
			case <-stop:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case out <- chunk{err: err}:
				case <-stop:
				}
			}
			return
		}
	}
}

func waitAll(chs []<-chan error) error {
	errs := make([]error, 0, len(chs))
	for _, ch := range chs {
		errs = append(errs, <-ch)
	}
	return errors.Join(errs...)
}

func wait(ch <-chan error) error {
	if ch == nil {
		return nil
	}
	return <-ch
}

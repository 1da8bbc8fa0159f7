package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/set-night/streamchat/internal/chat"
	"github.com/set-night/streamchat/internal/domain"
)

type ViewOptions struct {
	EditsPerSecond float64
	Placeholder    string
	CallTimeout    time.Duration
}

// ChatView mirrors the reply being assembled in one Telegram chat into a single
// message that is edited as content streams in. Consecutive streaming updates
// are coalesced so edits never outrun the limiter; final updates are never dropped.
type ChatView struct {
	api     Messenger
	chatID  int64
	opts    ViewOptions
	limiter *rate.Limiter

	mu      sync.Mutex
	queue   []chat.Update
	running bool

	// owned by the drain goroutine
	sessionID string
	reply     int
	msgID     int
	shown     string
	done      bool
}

func NewChatView(api Messenger, chatID int64, opts ViewOptions) *ChatView {
	return &ChatView{
		api:     api,
		chatID:  chatID,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.EditsPerSecond), 1),
		reply:   -1,
	}
}

// Publish implements chat.Observer. It never blocks on Telegram.
func (v *ChatView) Publish(u chat.Update) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n := len(v.queue); n > 0 && v.queue[n-1].Streaming && u.Streaming {
		v.queue[n-1] = u
	} else {
		v.queue = append(v.queue, u)
	}
	if !v.running {
		v.running = true
		go v.drain()
	}
}

func (v *ChatView) drain() {
	for {
		v.mu.Lock()
		if len(v.queue) == 0 {
			v.running = false
			v.mu.Unlock()
			return
		}
		u := v.queue[0]
		v.queue = v.queue[1:]
		v.mu.Unlock()

		v.render(u)
	}
}

func (v *ChatView) render(u chat.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), v.opts.CallTimeout)
	defer cancel()

	target := replyIndex(u)
	if target != v.reply || u.SessionID != v.sessionID {
		v.sessionID = u.SessionID
		v.reply, v.msgID, v.shown, v.done = -1, 0, "", false
		if !u.Streaming || target < 0 {
			return
		}
		v.reply = target
	}
	if v.done || target < 0 {
		return
	}

	if u.Streaming {
		v.showPartial(ctx, u)
		return
	}
	v.showFinal(ctx, u.Messages[target].Content)
	v.done = true
}

func (v *ChatView) showPartial(ctx context.Context, u chat.Update) {
	if v.msgID == 0 {
		text := Preview(orDefault(u.Messages[v.reply].Content, v.opts.Placeholder), ContentChunkLen)
		msg, err := sendHTML(ctx, v.api, v.chatID, RenderHTML(text), nil)
		if err != nil {
			slog.Warn("send streaming message", "chat_id", v.chatID, "error", err)
			return
		}
		v.msgID = msg.ID
		v.shown = text
		return
	}

	if err := v.limiter.Wait(ctx); err != nil {
		return
	}
	u = v.newest(u)
	text := Preview(orDefault(u.Messages[v.reply].Content, v.opts.Placeholder), ContentChunkLen)
	if text == v.shown {
		return
	}
	if err := EditContent(ctx, v.api, v.chatID, v.msgID, text); err != nil {
		slog.Warn("edit streaming message", "chat_id", v.chatID, "error", err)
		return
	}
	v.shown = text
}

func (v *ChatView) showFinal(ctx context.Context, content string) {
	if content == "" {
		if v.msgID != 0 {
			if err := DeleteMessage(ctx, v.api, v.chatID, v.msgID); err != nil {
				slog.Warn("delete empty reply", "chat_id", v.chatID, "error", err)
			}
		}
		return
	}
	if v.msgID == 0 {
		if _, err := SendContent(ctx, v.api, v.chatID, content); err != nil {
			slog.Warn("send reply", "chat_id", v.chatID, "error", err)
		}
		return
	}

	parts := SplitMessage(content, ContentChunkLen)
	if parts[0] != v.shown {
		if err := v.limiter.Wait(ctx); err != nil {
			slog.Warn("edit reply", "chat_id", v.chatID, "error", err)
		} else if err := EditContent(ctx, v.api, v.chatID, v.msgID, parts[0]); err != nil {
			slog.Warn("edit reply", "chat_id", v.chatID, "error", err)
		}
	}
	for _, part := range parts[1:] {
		if _, err := sendHTML(ctx, v.api, v.chatID, RenderHTML(part), nil); err != nil {
			slog.Warn("send reply part", "chat_id", v.chatID, "error", err)
			return
		}
	}
}

// newest swaps u for a streaming update of the same reply that queued up while
// the limiter was waiting.
func (v *ChatView) newest(u chat.Update) chat.Update {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.queue) == 0 {
		return u
	}
	next := v.queue[0]
	if !next.Streaming || next.SessionID != u.SessionID || replyIndex(next) != v.reply {
		return u
	}
	v.queue = v.queue[1:]
	return next
}

// replyIndex is the index of the trailing assistant message, or -1.
func replyIndex(u chat.Update) int {
	last := len(u.Messages) - 1
	if last < 0 || u.Messages[last].Role != domain.RoleAssistant {
		return -1
	}
	return last
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

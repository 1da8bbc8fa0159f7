package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/set-night/streamchat/internal/chat"
	"github.com/set-night/streamchat/internal/domain"
)

// ChatFactory builds the chat for one Telegram chat and identity.
type ChatFactory func(chatID int64, ident domain.Identity) *chat.Chat

// ChatRegistry keeps one open chat per Telegram chat. A chat is rebuilt when the
// identity behind it changes, which also selects its persistence target anew.
type ChatRegistry struct {
	mu      sync.Mutex
	chats   map[int64]*chat.Chat
	factory ChatFactory
}

func NewChatRegistry(factory ChatFactory) *ChatRegistry {
	return &ChatRegistry{chats: make(map[int64]*chat.Chat), factory: factory}
}

func (r *ChatRegistry) Get(ctx context.Context, chatID int64, ident domain.Identity) (*chat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.chats[chatID]; ok {
		if c.Identity() == ident {
			return c, nil
		}
		c.Close()
		delete(r.chats, chatID)
	}

	c := r.factory(chatID, ident)
	if err := c.Open(ctx); err != nil {
		return nil, fmt.Errorf("open chat %d: %w", chatID, err)
	}
	r.chats[chatID] = c
	return c, nil
}

// Drop closes and forgets the chat so the next Get starts fresh.
func (r *ChatRegistry) Drop(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.chats[chatID]; ok {
		c.Close()
		delete(r.chats, chatID)
	}
}

// Close abandons every stream in flight.
func (r *ChatRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.chats {
		c.Close()
		delete(r.chats, id)
	}
}

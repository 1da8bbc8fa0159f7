package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/streamchat/internal/telegram"
)

// HandleText sends a plain message to the model. The reply streams into the
// chat's view in the background so session commands stay responsive meanwhile.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	msg := update.Message

	// Skip commands
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	chatID := msg.Chat.ID
	c, err := h.chatFor(ctx, chatID)
	if err != nil {
		h.reportError(ctx, b, chatID, err, "open chat")
		return
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()

		stopTyping := telegram.StartTyping(ctx, b, chatID)
		err := c.Submit(ctx, msg.Text)
		stopTyping()
		if err != nil {
			h.reportError(ctx, b, chatID, err, "stream reply")
		}
	}()
}

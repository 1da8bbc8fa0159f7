package handler

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/streamchat/internal/chat"
	"github.com/set-night/streamchat/internal/config"
	"github.com/set-night/streamchat/internal/domain"
	"github.com/set-night/streamchat/internal/middleware"
	"github.com/set-night/streamchat/internal/telegram"
)

// chatFor returns the chat of a Telegram chat for the identity in ctx.
func (h *Handler) chatFor(ctx context.Context, chatID int64) (*chat.Chat, error) {
	return h.chats.Get(ctx, chatID, middleware.GetIdentity(ctx))
}

func (h *Handler) handleNew(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	c, err := h.chatFor(ctx, chatID)
	if err != nil {
		h.reportError(ctx, b, chatID, err, "open chat")
		return
	}

	name := commandArg(update.Message.Text)
	if name == "" {
		name = "Чат " + time.Now().Format("02.01 15:04")
	}
	if err := c.Create(ctx, name); err != nil {
		h.reportError(ctx, b, chatID, err, "create chat")
		return
	}

	text := "🆕 История очищена. Начнём заново!"
	if !c.Identity().IsAnonymous() {
		text = fmt.Sprintf("🆕 Чат <b>%s</b> создан и выбран.", html.EscapeString(name))
	}
	telegram.SendText(ctx, b, chatID, text, nil)
}

func (h *Handler) handleChats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	c, err := h.chatFor(ctx, chatID)
	if err != nil {
		h.reportError(ctx, b, chatID, err, "open chat")
		return
	}
	if c.Identity().IsAnonymous() {
		h.replyError(ctx, b, chatID, domain.ErrAnonymous)
		return
	}

	text, kb := sessionsPage(c, 0)
	var markup models.ReplyMarkup
	if kb != nil {
		markup = kb
	}
	telegram.SendText(ctx, b, chatID, text, markup)
}

func (h *Handler) handleChatsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}
	defer b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})

	page, err := strconv.Atoi(strings.TrimPrefix(cq.Data, telegram.CallbackPage+"_"))
	if err != nil {
		return
	}
	chatID := cq.Message.Message.Chat.ID
	c, err := h.chatFor(ctx, chatID)
	if err != nil {
		h.reportError(ctx, b, chatID, err, "open chat")
		return
	}
	h.editSessionsPage(ctx, b, c, cq.Message.Message, page)
}

func (h *Handler) handleSelectChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}
	defer b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})

	chatID := cq.Message.Message.Chat.ID
	c, err := h.chatFor(ctx, chatID)
	if err != nil {
		h.reportError(ctx, b, chatID, err, "open chat")
		return
	}

	id := strings.TrimPrefix(cq.Data, telegram.CallbackSelect)
	if err := c.Select(ctx, id); err != nil {
		h.reportError(ctx, b, chatID, err, "select chat")
		return
	}

	info, _ := c.ActiveSession()
	telegram.SendText(ctx, b, chatID, fmt.Sprintf("✅ Выбран чат <b>%s</b> (%d сообщений).",
		html.EscapeString(info.Name), len(c.Snapshot().Messages)), nil)
	h.editSessionsPage(ctx, b, c, cq.Message.Message, 0)
}

func (h *Handler) handleDeleteChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		return
	}
	defer b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})

	chatID := cq.Message.Message.Chat.ID
	c, err := h.chatFor(ctx, chatID)
	if err != nil {
		h.reportError(ctx, b, chatID, err, "open chat")
		return
	}

	id := strings.TrimPrefix(cq.Data, telegram.CallbackDelete)
	if err := c.Delete(ctx, id); err != nil {
		h.reportError(ctx, b, chatID, err, "delete chat")
		return
	}
	h.editSessionsPage(ctx, b, c, cq.Message.Message, 0)
}

func (h *Handler) handleClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	c, err := h.chatFor(ctx, chatID)
	if err != nil {
		h.reportError(ctx, b, chatID, err, "open chat")
		return
	}
	if err := c.Clear(ctx); err != nil {
		h.reportError(ctx, b, chatID, err, "clear chat")
		return
	}
	telegram.SendText(ctx, b, chatID, "🧹 Чат очищен.", nil)
}

func (h *Handler) editSessionsPage(ctx context.Context, b *bot.Bot, c *chat.Chat, msg *models.Message, page int) {
	text, kb := sessionsPage(c, page)
	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if kb != nil {
		params.ReplyMarkup = kb
	}
	b.EditMessageText(ctx, params)
}

// sessionsPage renders the /chats message. The keyboard is nil when there is nothing to list.
func sessionsPage(c *chat.Chat, page int) (string, *models.InlineKeyboardMarkup) {
	sessions := c.Sessions()
	if len(sessions) == 0 {
		return "📂 Чатов пока нет. Создайте: /new &lt;название&gt;", nil
	}
	activeID := ""
	if info, ok := c.ActiveSession(); ok {
		activeID = info.ID
	}
	text := fmt.Sprintf("📂 <b>Чаты</b> (%d шт.)", len(sessions))
	return text, telegram.SessionsKeyboard(sessions, activeID, page, config.SessionsPerPage)
}

package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/streamchat/internal/telegram"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/login", bot.MatchTypePrefix, h.handleLogin)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypePrefix, h.handleLogout)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/new", bot.MatchTypePrefix, h.handleNew)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/chats", bot.MatchTypePrefix, h.handleChats)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/clear", bot.MatchTypePrefix, h.handleClear)

	// Chats callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackSelect, bot.MatchTypePrefix, h.handleSelectChat)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackDelete, bot.MatchTypePrefix, h.handleDeleteChat)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackPage+"_", bot.MatchTypePrefix, h.handleChatsPage)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, telegram.CallbackNoop, bot.MatchTypeExact, h.handleNoop)

	// Plain text reaches HandleText through the default handler
}

// handleNoop acknowledges callbacks of non-interactive buttons such as the page indicator.
func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
	}
}

package handler

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/streamchat/internal/chat"
	"github.com/set-night/streamchat/internal/middleware"
	"github.com/set-night/streamchat/internal/telegram"
)

const commandsHelp = "📋 <b>Команды:</b>\n" +
	"/login &lt;имя&gt; — Войти и сохранять чаты\n" +
	"/logout — Выйти\n" +
	"/new &lt;название&gt; — Новый чат\n" +
	"/chats — Список чатов\n" +
	"/clear — Очистить текущий чат\n\n" +
	"Просто отправьте сообщение, чтобы начать диалог!"

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	ident := middleware.GetIdentity(ctx)

	greeting := "👋 Привет! Вы общаетесь анонимно: история хранится только для этого чата."
	if !ident.IsAnonymous() {
		greeting = fmt.Sprintf("👋 Привет, <b>%s</b>!", html.EscapeString(ident.DisplayName))
	}
	telegram.SendText(ctx, b, chatID, greeting+"\n\n"+commandsHelp, nil)
}

func (h *Handler) handleLogin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	name := commandArg(update.Message.Text)
	if name == "" {
		name = update.Message.From.FirstName
	}

	ident, err := h.identity.SignIn(ctx, userID, name)
	if err != nil {
		h.reportError(ctx, b, chatID, err, "sign in")
		return
	}

	// The anonymous transcript does not follow the user into the account.
	if err := h.local.ForChat(chatID).Delete(ctx, chat.LocalSlot); err != nil {
		slog.Error("clear anonymous chat", "error", err, "chat_id", chatID)
	}
	h.chats.Drop(chatID)
	h.tgLogger.LogSignIn(userID, ident.DisplayName)

	telegram.SendText(ctx, b, chatID, fmt.Sprintf(
		"✅ Вы вошли как <b>%s</b>.\nСоздайте чат: /new &lt;название&gt; или выберите: /chats",
		html.EscapeString(ident.DisplayName)), nil)
}

func (h *Handler) handleLogout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if err := h.identity.SignOut(ctx, update.Message.From.ID); err != nil {
		h.reportError(ctx, b, chatID, err, "sign out")
		return
	}
	h.chats.Drop(chatID)
	telegram.SendText(ctx, b, chatID, "👋 Вы вышли. Дальше общение анонимное.", nil)
}

// commandArg returns the text after the command word.
func commandArg(text string) string {
	parts := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

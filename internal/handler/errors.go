package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"github.com/set-night/streamchat/internal/domain"
	"github.com/set-night/streamchat/internal/telegram"
)

var expectedErrors = []error{
	domain.ErrEmptyInput,
	domain.ErrStreamBusy,
	domain.ErrStreamAbandoned,
	domain.ErrNoActiveSession,
	domain.ErrAnonymous,
	domain.ErrSessionNotFound,
}

// isExpected reports errors caused by the user rather than by the system.
func isExpected(err error) bool {
	for _, e := range expectedErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// userMessage maps an error to the reply shown in chat. An empty string means stay silent.
func userMessage(err error) string {
	var upErr *domain.UpstreamError
	var persistErr *domain.PersistenceError

	switch {
	case err == nil, errors.Is(err, domain.ErrStreamAbandoned):
		return ""
	case errors.Is(err, domain.ErrEmptyInput):
		return "✏️ Пустое сообщение."
	case errors.Is(err, domain.ErrStreamBusy):
		return "⏳ Дождитесь ответа на предыдущий запрос."
	case errors.Is(err, domain.ErrNoActiveSession):
		return "📂 Нет активного чата. Создайте: /new &lt;название&gt; или выберите: /chats"
	case errors.Is(err, domain.ErrAnonymous):
		return "🔒 Войдите, чтобы сохранять чаты: /login &lt;имя&gt;"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "❌ Чат не найден."
	case errors.Is(err, domain.ErrIdleTimeout):
		return "⌛ Ответ прервался: сервис перестал отвечать."
	case errors.As(err, &upErr) && upErr.StatusCode != 0:
		return fmt.Sprintf("❌ Сервис ответов недоступен (код %d). Попробуйте позже.", upErr.StatusCode)
	case errors.As(err, &upErr):
		return "❌ Не удалось получить ответ. Попробуйте позже."
	case errors.As(err, &persistErr):
		return "⚠️ Не удалось сохранить чат. История сохранится до перезапуска."
	default:
		return "❌ Что-то пошло не так. Попробуйте позже."
	}
}

func (h *Handler) replyError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	if text := userMessage(err); text != "" {
		telegram.SendText(ctx, b, chatID, text, nil)
	}
}

// reportError logs unexpected failures, forwards them to the operator chat and
// tells the user.
func (h *Handler) reportError(ctx context.Context, b *bot.Bot, chatID int64, err error, where string) {
	if !isExpected(err) {
		slog.Error(where, "error", err, "chat_id", chatID)
		h.tgLogger.LogError(err, where)
	}
	h.replyError(ctx, b, chatID, err)
}

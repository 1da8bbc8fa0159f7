package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/streamchat/internal/domain"
)

type ctxKey string

const IdentityKey ctxKey = "identity"

type IdentityResolver interface {
	Resolve(ctx context.Context, telegramID int64) (domain.Identity, error)
}

// GetIdentity extracts the sender's identity from context. Updates without a
// resolved identity are treated as anonymous.
func GetIdentity(ctx context.Context) domain.Identity {
	ident, ok := ctx.Value(IdentityKey).(domain.Identity)
	if !ok {
		return domain.Anonymous()
	}
	return ident
}

func WithIdentity(ctx context.Context, ident domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, ident)
}

// IdentityLoader returns middleware that resolves the sender into context.
// Updates are dropped when the lookup fails rather than served as anonymous.
func IdentityLoader(resolver IdentityResolver) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			chatID, userID := Origin(update)
			if userID == 0 {
				next(ctx, b, update)
				return
			}

			ident, err := resolver.Resolve(ctx, userID)
			if err != nil {
				slog.Error("resolve identity", "error", err, "user_id", userID)
				if chatID != 0 {
					b.SendMessage(ctx, &bot.SendMessageParams{
						ChatID: chatID,
						Text:   "❌ Не удалось загрузить профиль. Попробуйте позже.",
					})
				}
				return
			}
			next(WithIdentity(ctx, ident), b, update)
		}
	}
}

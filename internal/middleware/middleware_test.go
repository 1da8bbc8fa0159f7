package middleware

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/streamchat/internal/domain"
)

type staticResolver struct {
	ident domain.Identity
	calls []int64
}

func (r *staticResolver) Resolve(_ context.Context, id int64) (domain.Identity, error) {
	r.calls = append(r.calls, id)
	return r.ident, nil
}

func messageUpdate(chatID, userID int64) *models.Update {
	return &models.Update{Message: &models.Message{
		Chat: models.Chat{ID: chatID},
		From: &models.User{ID: userID},
	}}
}

func TestChatLimiter(t *testing.T) {
	l := NewChatLimiter(60, 2)
	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2), "buckets are per chat")
}

func TestRateLimitPassesCallbacks(t *testing.T) {
	l := NewChatLimiter(60, 1)
	called := 0
	h := RateLimit(l)(func(context.Context, *bot.Bot, *models.Update) { called++ })

	cb := &models.Update{CallbackQuery: &models.CallbackQuery{From: models.User{ID: 5}}}
	for range 3 {
		h(context.Background(), nil, cb)
	}
	assert.Equal(t, 3, called)
}

func TestIdentityLoader(t *testing.T) {
	r := &staticResolver{ident: domain.Identity{OwnerID: "o1", DisplayName: "ada"}}
	var got domain.Identity
	h := IdentityLoader(r)(func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		got = GetIdentity(ctx)
	})

	h(context.Background(), nil, messageUpdate(10, 20))
	require.Equal(t, []int64{20}, r.calls)
	assert.Equal(t, "o1", got.OwnerID)
}

func TestGetIdentityDefaultsToAnonymous(t *testing.T) {
	assert.True(t, GetIdentity(context.Background()).IsAnonymous())
}

func TestOrigin(t *testing.T) {
	chatID, userID := Origin(messageUpdate(1, 2))
	assert.Equal(t, int64(1), chatID)
	assert.Equal(t, int64(2), userID)

	cb := &models.Update{CallbackQuery: &models.CallbackQuery{
		From:    models.User{ID: 7},
		Message: models.MaybeInaccessibleMessage{Message: &models.Message{Chat: models.Chat{ID: 3}}},
	}}
	chatID, userID = Origin(cb)
	assert.Equal(t, int64(3), chatID)
	assert.Equal(t, int64(7), userID)
}

func TestRecover(t *testing.T) {
	h := Recover(nil)(func(context.Context, *bot.Bot, *models.Update) { panic("boom") })
	assert.NotPanics(t, func() { h(context.Background(), nil, &models.Update{}) })
}

package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/set-night/streamchat/internal/domain"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"abandoned", domain.ErrStreamAbandoned, ""},
		{"busy", domain.ErrStreamBusy, "⏳ Дождитесь ответа на предыдущий запрос."},
		{"wrapped empty input", fmt.Errorf("submit: %w", domain.ErrEmptyInput), "✏️ Пустое сообщение."},
		{"status", &domain.UpstreamError{StatusCode: 503, Body: "busy"}, "❌ Сервис ответов недоступен (код 503). Попробуйте позже."},
		{"transport", &domain.UpstreamError{Err: errors.New("dial tcp")}, "❌ Не удалось получить ответ. Попробуйте позже."},
		{"idle", &domain.UpstreamError{Err: domain.ErrIdleTimeout}, "⌛ Ответ прервался: сервис перестал отвечать."},
		{"persistence", &domain.PersistenceError{SessionID: "s", Err: errors.New("disk")}, "⚠️ Не удалось сохранить чат. История сохранится до перезапуска."},
		{
			"joined upstream wins",
			errors.Join(&domain.UpstreamError{StatusCode: 500}, &domain.PersistenceError{Err: errors.New("disk")}),
			"❌ Сервис ответов недоступен (код 500). Попробуйте позже.",
		},
		{"unknown", errors.New("boom"), "❌ Что-то пошло не так. Попробуйте позже."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage(tt.err))
		})
	}
}

func TestIsExpected(t *testing.T) {
	assert.True(t, isExpected(domain.ErrAnonymous))
	assert.True(t, isExpected(fmt.Errorf("select: %w", domain.ErrSessionNotFound)))
	assert.False(t, isExpected(&domain.UpstreamError{StatusCode: 500}))
	assert.False(t, isExpected(errors.New("boom")))
}

func TestCommandArg(t *testing.T) {
	assert.Equal(t, "", commandArg("/new"))
	assert.Equal(t, "my chat", commandArg("/new   my chat "))
	assert.Equal(t, "ada", commandArg("/login ada"))
}

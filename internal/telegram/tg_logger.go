package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramLogger mirrors notable events into an operator chat. A zero chat id disables it.
type TelegramLogger struct {
	api     Messenger
	chatID  int64
	topics  map[LogType]int
	timeout time.Duration
}

type LogType string

const (
	LogTypeError  LogType = "error"
	LogTypeSignIn LogType = "signIn"
)

func NewTelegramLogger(api Messenger, chatID int64, errorTopic, signInTopic int, timeout time.Duration) *TelegramLogger {
	return &TelegramLogger{
		api:    api,
		chatID: chatID,
		topics: map[LogType]int{
			LogTypeError:  errorTopic,
			LogTypeSignIn: signInTopic,
		},
		timeout: timeout,
	}
}

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil || l.chatID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	_, err := l.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.chatID,
		Text:            Preview(message, ContentChunkLen),
		ParseMode:       models.ParseModeHTML,
		MessageThreadID: l.topics[logType],
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, where string) {
	msg := fmt.Sprintf("❌ <b>Error</b>\n\n<b>Context:</b> %s\n<b>Error:</b> <code>%s</code>\n<b>Time:</b> %s",
		html.EscapeString(where), html.EscapeString(err.Error()), time.Now().Format("2006-01-02 15:04:05"))
	l.Log(LogTypeError, msg)
}

func (l *TelegramLogger) LogSignIn(telegramID int64, name string) {
	msg := fmt.Sprintf("👤 <b>Sign-in</b>\n\n<b>ID:</b> <code>%d</code>\n<b>Name:</b> %s",
		telegramID, html.EscapeString(name))
	l.Log(LogTypeSignIn, msg)
}

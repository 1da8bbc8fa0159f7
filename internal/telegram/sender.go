package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ContentChunkLen bounds the raw content sent per message. HTML escaping grows
// the text, so it stays below Telegram's 4096 limit.
const ContentChunkLen = 3500

// Messenger is the part of the Bot API the chat layer talks to. *bot.Bot satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// SendContent sends reply content, splitting it into parts if needed.
// Falls back to plain text if Telegram rejects the HTML.
func SendContent(ctx context.Context, m Messenger, chatID int64, content string) ([]int, error) {
	var ids []int
	for _, part := range SplitMessage(content, ContentChunkLen) {
		msg, err := sendHTML(ctx, m, chatID, RenderHTML(part), nil)
		if err != nil {
			return ids, err
		}
		ids = append(ids, msg.ID)
	}
	return ids, nil
}

// SendText sends a short service message with an optional keyboard.
func SendText(ctx context.Context, m Messenger, chatID int64, text string, markup models.ReplyMarkup) error {
	_, err := sendHTML(ctx, m, chatID, text, markup)
	return err
}

func sendHTML(ctx context.Context, m Messenger, chatID int64, text string, markup models.ReplyMarkup) (*models.Message, error) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	msg, err := m.SendMessage(ctx, params)
	if err != nil {
		slog.Warn("html send failed, falling back to plain text", "error", err)
		params.ParseMode = ""
		params.Text = PlainText(text)
		msg, err = m.SendMessage(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("send message: %w", err)
		}
	}
	return msg, nil
}

// EditContent replaces the text of a sent message with rendered content.
// Content longer than one message is cut; callers send the rest separately.
func EditContent(ctx context.Context, m Messenger, chatID int64, messageID int, content string) error {
	text := RenderHTML(Preview(content, ContentChunkLen))

	_, err := m.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		_, err = m.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      PlainText(text),
		})
	}
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func DeleteMessage(ctx context.Context, m Messenger, chatID int64, messageID int) error {
	_, err := m.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// StartTyping sends "typing..." action every 4 seconds until the returned cancel function is called.
func StartTyping(ctx context.Context, m Messenger, chatID int64) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(4 * time.Second)
		defer ticker.Stop()
		m.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.SendChatAction(ctx, &bot.SendChatActionParams{
					ChatID: chatID,
					Action: models.ChatActionTyping,
				})
			}
		}
	}()
	return cancel
}

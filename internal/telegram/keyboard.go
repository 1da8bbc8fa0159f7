package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/set-night/streamchat/internal/domain"
)

// Callback data prefixes of the /chats keyboard.
const (
	CallbackSelect = "chat_select_"
	CallbackDelete = "chat_delete_"
	CallbackPage   = "chat_page"
	CallbackNoop   = "cur"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// PaginationRow creates a pagination row with prev/next buttons.
func PaginationRow(currentPage, totalPages int, callbackPrefix string) []models.InlineKeyboardButton {
	var row []models.InlineKeyboardButton

	if currentPage > 0 {
		row = append(row, InlineButton("⬅️", fmt.Sprintf("%s_%d", callbackPrefix, currentPage-1)))
	}

	row = append(row, InlineButton(
		fmt.Sprintf("%d/%d", currentPage+1, totalPages),
		CallbackNoop,
	))

	if currentPage < totalPages-1 {
		row = append(row, InlineButton("➡️", fmt.Sprintf("%s_%d", callbackPrefix, currentPage+1)))
	}

	return row
}

// SessionsKeyboard lists one page of sessions, each with a select and a delete button.
// page is clamped into range.
func SessionsKeyboard(sessions []domain.SessionInfo, activeID string, page, perPage int) *models.InlineKeyboardMarkup {
	totalPages := (len(sessions) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	page = max(0, min(page, totalPages-1))

	var rows [][]models.InlineKeyboardButton
	end := min(len(sessions), (page+1)*perPage)
	for _, s := range sessions[page*perPage : end] {
		label := Preview(s.Name, 40)
		if s.ID == activeID {
			label += " ✅"
		}
		rows = append(rows, ButtonRow(
			InlineButton(label, CallbackSelect+s.ID),
			InlineButton("🗑", CallbackDelete+s.ID),
		))
	}
	if totalPages > 1 {
		rows = append(rows, PaginationRow(page, totalPages, CallbackPage))
	}
	return InlineKeyboard(rows...)
}

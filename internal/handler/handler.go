package handler

import (
	"sync"

	"github.com/go-telegram/bot"

	"github.com/set-night/streamchat/internal/config"
	"github.com/set-night/streamchat/internal/repository"
	"github.com/set-night/streamchat/internal/service"
	"github.com/set-night/streamchat/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	identity *service.IdentityService
	chats    *service.ChatRegistry
	local    *repository.LocalStore
	tgLogger *telegram.TelegramLogger

	inflight sync.WaitGroup
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Identity *service.IdentityService
	Chats    *service.ChatRegistry
	Local    *repository.LocalStore
	TgLogger *telegram.TelegramLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:      deps.Bot,
		cfg:      deps.Cfg,
		identity: deps.Identity,
		chats:    deps.Chats,
		local:    deps.Local,
		tgLogger: deps.TgLogger,
	}
}

// Wait blocks until every reply being streamed has finished.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

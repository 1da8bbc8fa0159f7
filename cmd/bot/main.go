package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	streamchat "github.com/set-night/streamchat"
	"github.com/set-night/streamchat/internal/chat"
	"github.com/set-night/streamchat/internal/config"
	"github.com/set-night/streamchat/internal/domain"
	"github.com/set-night/streamchat/internal/handler"
	"github.com/set-night/streamchat/internal/middleware"
	"github.com/set-night/streamchat/internal/repository"
	"github.com/set-night/streamchat/internal/service"
	"github.com/set-night/streamchat/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(streamchat.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Anonymous chats live in a local SQLite file
	local, err := repository.OpenLocalStore(ctx, cfg.LocalStorePath)
	if err != nil {
		slog.Error("failed to open local store", "error", err, "path", cfg.LocalStorePath)
		os.Exit(1)
	}
	defer local.Close()

	// Initialize repositories and services
	sessions := repository.NewSessionRepository(pool, cfg.Model, cfg.Temperature)
	identity := service.NewIdentityService(repository.NewUserRepository(pool))
	completion := service.NewCompletionService(cfg.CompletionAPIKey, cfg.CompletionURL, service.GenerationParams{
		Model:             cfg.Model,
		MaxTokens:         cfg.MaxOutputLength,
		Temperature:       cfg.Temperature,
		TopP:              cfg.TopP,
		TopK:              cfg.TopK,
		RepetitionPenalty: cfg.RepetitionPenalty,
		Stop:              cfg.StopSequences,
	})

	// Handler pointer for use in default handler closure
	var h *handler.Handler
	var tgLogger *telegram.TelegramLogger

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(middleware.ReporterFunc(func(err error, where string) {
				tgLogger.LogError(err, where)
			})),
			middleware.Logging(),
			middleware.RateLimit(middleware.NewChatLimiter(config.RateLimitPerMinute, config.RateLimitBurst)),
			middleware.IdentityLoader(identity),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil || update.Message == nil {
				return
			}
			h.HandleText(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	tgLogger = telegram.NewTelegramLogger(b, cfg.LogTelegramChatID, cfg.LogTopicError, cfg.LogTopicSignIn, config.TelegramCallTimeout)

	viewOpts := telegram.ViewOptions{
		EditsPerSecond: cfg.EditsPerSecond,
		Placeholder:    config.StreamingPlaceholder,
		CallTimeout:    config.TelegramCallTimeout,
	}
	chatOpts := chat.Options{
		SystemPrompt:     cfg.SystemPrompt,
		MaxLength:        cfg.MaxOutputLength,
		TruncationNotice: config.TruncationNotice,
		IdleTimeout:      cfg.StreamIdleTimeout,
	}
	chats := service.NewChatRegistry(func(chatID int64, ident domain.Identity) *chat.Chat {
		return chat.New(chatOpts, chat.Deps{
			Identity:  ident,
			Completer: completion,
			Store:     sessions,
			Local:     local.ForChat(chatID),
			Observer:  telegram.NewChatView(b, chatID, viewOpts),
		})
	})

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:      b,
		Cfg:      cfg,
		Identity: identity,
		Chats:    chats,
		Local:    local,
		TgLogger: tgLogger,
	})

	// Register all handlers
	h.Register()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	// Graceful shutdown
	chats.Close()
	h.Wait()
	slog.Info("bot stopped gracefully")
}

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Completion API (OpenAI-compatible)
	CompletionAPIKey  string   `env:"COMPLETION_API_KEY,required"`
	CompletionURL     string   `env:"COMPLETION_API_URL" envDefault:"https://api.together.xyz/v1"`
	Model             string   `env:"COMPLETION_MODEL" envDefault:"meta-llama/Llama-3.3-70B-Instruct-Turbo"`
	SystemPrompt      string   `env:"SYSTEM_PROMPT" envDefault:"You are a helpful assistant."`
	MaxOutputLength   int      `env:"MAX_OUTPUT_LENGTH" envDefault:"1024"`
	Temperature       float64  `env:"TEMPERATURE" envDefault:"0.7"`
	TopP              float64  `env:"TOP_P" envDefault:"0.7"`
	TopK              int      `env:"TOP_K" envDefault:"50"`
	RepetitionPenalty float64  `env:"REPETITION_PENALTY" envDefault:"1.0"`
	StopSequences     []string `env:"STOP_SEQUENCES" envSeparator:"," envDefault:"<|eot_id|>,<|eom_id|>"`

	// Streaming
	StreamIdleTimeout time.Duration `env:"STREAM_IDLE_TIMEOUT" envDefault:"60s"`
	EditsPerSecond    float64       `env:"TELEGRAM_EDITS_PER_SECOND" envDefault:"1"`

	// Anonymous chats
	LocalStorePath string `env:"LOCAL_STORE_PATH" envDefault:"anonymous.db"`

	// Operator log chat
	LogTelegramChatID int64 `env:"LOG_TELEGRAM_CHAT_ID" envDefault:"0"`
	LogTopicError     int   `env:"LOG_TOPIC_ERROR" envDefault:"0"`
	LogTopicSignIn    int   `env:"LOG_TOPIC_SIGN_IN" envDefault:"0"`

	// Bot behavior
	DropPendingUpdates bool   `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxOutputLength <= 0 {
		return fmt.Errorf("MAX_OUTPUT_LENGTH must be positive, got %d", c.MaxOutputLength)
	}
	if c.EditsPerSecond <= 0 {
		return fmt.Errorf("TELEGRAM_EDITS_PER_SECOND must be positive, got %v", c.EditsPerSecond)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

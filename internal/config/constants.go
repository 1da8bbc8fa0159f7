package config

import "time"

const (
	// Appended to a reply whose formatted length reached MaxOutputLength
	TruncationNotice = "\n... [response truncated due to length]"

	// Postgres pool
	DBMaxConns = 20
	DBMinConns = 5

	// Per-chat inbound message rate
	RateLimitPerMinute = 20
	RateLimitBurst     = 5

	// Timeout for Telegram API calls made outside an update
	TelegramCallTimeout = 10 * time.Second

	// Placeholder shown until the first content arrives
	StreamingPlaceholder = "…"

	// Sessions listed per /chats page
	SessionsPerPage = 5
)

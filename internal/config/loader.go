package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MANNBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MANNBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "MANNBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "MANNBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MANNBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MANNBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MANNBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MANNBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MANNBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MANNBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MANNBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MANNBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MANNBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MANNBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MANNBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MANNBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MANNBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MANNBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "MANNBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MANNBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "MANNBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MANNBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MANNBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MANNBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MANNBOT_S3_FORCE_PATH_STYLE")

	// ── Pricefeed ──
	setBool(&cfg.Pricefeed.Enabled, "MANNBOT_PRICEFEED_ENABLED")
	setStr(&cfg.Pricefeed.WsURL, "MANNBOT_PRICEFEED_WS_URL")

	// ── Trim ──
	setBool(&cfg.Trim.Enabled, "MANNBOT_TRIM_ENABLED")
	setInt(&cfg.Trim.RetentionDays, "MANNBOT_TRIM_RETENTION_DAYS")
	setStr(&cfg.Trim.Cron, "MANNBOT_TRIM_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "MANNBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "MANNBOT_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "MANNBOT_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "MANNBOT_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimitPerMin, "MANNBOT_SERVER_RATE_LIMIT_PER_MIN")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MANNBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MANNBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MANNBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MANNBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MANNBOT_MODE")
	setStr(&cfg.LogLevel, "MANNBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

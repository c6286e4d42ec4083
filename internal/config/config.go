package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the bot settings read from the environment.
type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN,required,notEmpty"`
	DiscordGuildBlacklist []string `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	DeveloperID           string   `env:"DEVELOPER_ID"`
	CommandPrefix         string   `env:"COMMAND_PREFIX" envDefault:"_"`
	InitSlashCommands     bool     `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	StoragePath           string   `env:"STORAGE_PATH" envDefault:"data/sweeper.db"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	PurgeMaxBatch        int  `env:"PURGE_MAX_BATCH" envDefault:"100"`
	PurgeReportConfirmed bool `env:"PURGE_REPORT_CONFIRMED" envDefault:"false"`

	QueueRate           float64       `env:"QUEUE_RATE" envDefault:"5"`
	QueueMaxRate        float64       `env:"QUEUE_MAX_RATE" envDefault:"50"`
	QueueMaxAttempts    int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"10"`
	QueueBackoffInitial time.Duration `env:"QUEUE_BACKOFF_INITIAL" envDefault:"500ms"`
	QueueBackoffMax     time.Duration `env:"QUEUE_BACKOFF_MAX" envDefault:"10s"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, falling back to system environment variables")
	}
	return Parse()
}

// Parse decodes the process environment without touching .env.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.PurgeMaxBatch < 1 || cfg.PurgeMaxBatch > 100 {
		cfg.PurgeMaxBatch = 100
	}
	if cfg.QueueRate <= 0 {
		cfg.QueueRate = 5
	}
	if cfg.QueueMaxRate < cfg.QueueRate {
		cfg.QueueMaxRate = cfg.QueueRate
	}
	if cfg.QueueMaxAttempts < 1 {
		cfg.QueueMaxAttempts = 1
	}
	return &cfg, nil
}

// IsDeveloper reports whether userID is the configured developer.
func IsDeveloper(cfg *Config, userID string) bool {
	return cfg != nil && cfg.DeveloperID != "" && cfg.DeveloperID == userID
}

// IsGuildBlacklisted reports whether the bot should refuse to serve guildID.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	return slices.Contains(c.DiscordGuildBlacklist, guildID)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.DiscordToken)
	assert.Equal(t, "_", cfg.CommandPrefix)
	assert.True(t, cfg.InitSlashCommands)
	assert.Equal(t, "data/sweeper.db", cfg.StoragePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.PurgeMaxBatch)
	assert.False(t, cfg.PurgeReportConfirmed)
	assert.Equal(t, 5.0, cfg.QueueRate)
	assert.Equal(t, 10, cfg.QueueMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.QueueBackoffInitial)
	assert.Equal(t, 10*time.Second, cfg.QueueBackoffMax)
	assert.Empty(t, cfg.DiscordGuildBlacklist)
}

func TestParseRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Parse()
	assert.Error(t, err)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DISCORD_GUILD_BLACKLIST", "1,2")
	t.Setenv("COMMAND_PREFIX", "!")
	t.Setenv("PURGE_MAX_BATCH", "250")
	t.Setenv("PURGE_REPORT_CONFIRMED", "true")
	t.Setenv("QUEUE_RATE", "20")
	t.Setenv("QUEUE_MAX_RATE", "10")
	t.Setenv("QUEUE_BACKOFF_MAX", "30s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, cfg.DiscordGuildBlacklist)
	assert.True(t, cfg.IsGuildBlacklisted("2"))
	assert.False(t, cfg.IsGuildBlacklisted("3"))
	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.Equal(t, 100, cfg.PurgeMaxBatch, "batch size is clamped")
	assert.True(t, cfg.PurgeReportConfirmed)
	assert.Equal(t, 20.0, cfg.QueueMaxRate, "max rate never below initial rate")
	assert.Equal(t, 30*time.Second, cfg.QueueBackoffMax)
}

func TestIsDeveloper(t *testing.T) {
	assert.False(t, IsDeveloper(nil, "1"))
	assert.False(t, IsDeveloper(&Config{}, ""))
	assert.True(t, IsDeveloper(&Config{DeveloperID: "1"}, "1"))
	assert.False(t, IsDeveloper(&Config{DeveloperID: "1"}, "2"))
}

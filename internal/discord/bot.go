package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/internal/config"
	"github.com/keshon/sweeper/internal/storage"
	"github.com/keshon/sweeper/pkg/cmd"
)

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	registry *cmd.Registry
	logger   zerolog.Logger
}

// NewBot creates the session without connecting. Discordgo's own 429 retry is
// disabled: rate limits are handled by the remote call queue.
func NewBot(cfg *config.Config, store *storage.Storage, reg *cmd.Registry, logger zerolog.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.ShouldRetryOnRateLimit = false
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Bot{
		dg:       dg,
		cfg:      cfg,
		storage:  store,
		registry: reg,
		logger:   logger.With().Str("component", "discord").Logger(),
	}, nil
}

// Session returns the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session {
	return b.dg
}

// Run connects and serves events until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.logger.Info().Msg("shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if b.leaveIfBlacklisted(s, g.ID) {
			continue
		}
		if !b.cfg.InitSlashCommands {
			continue
		}
		if err := b.registerCommands(g.ID); err != nil {
			b.logger.Error().Err(err).Str("guild", g.ID).Msg("failed to register slash commands")
		}
	}
	if !b.cfg.InitSlashCommands {
		b.logger.Info().Msg("registering slash commands skipped")
	}
	b.logger.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable {
		return
	}
	b.logger.Info().Str("guild", g.ID).Str("name", g.Name).Msg("guild available")
	if b.leaveIfBlacklisted(s, g.ID) || !b.cfg.InitSlashCommands {
		return
	}
	if err := b.registerCommands(g.ID); err != nil {
		b.logger.Error().Err(err).Str("guild", g.ID).Msg("failed to register slash commands")
	}
}

func (b *Bot) leaveIfBlacklisted(s *discordgo.Session, guildID string) bool {
	if !b.cfg.IsGuildBlacklisted(guildID) {
		return false
	}
	b.logger.Info().Str("guild", guildID).Msg("leaving blacklisted guild")
	if err := s.GuildLeave(guildID); err != nil {
		b.logger.Error().Err(err).Str("guild", guildID).Msg("failed to leave guild")
	}
	return true
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	name, args, ok := ParseCommand(b.cfg.CommandPrefix, m.Content)
	if !ok {
		return
	}
	c := b.registry.Get(name)
	if c == nil {
		return
	}

	data := &command.MessageContext{Session: s, Event: m, Args: args, Storage: b.storage}
	if err := c.Run(context.Background(), &cmd.Invocation{Args: args, Data: data}); err != nil {
		b.logger.Error().Err(err).Str("command", c.Name()).Str("channel", m.ChannelID).Msg("error running command")
		_ = MessageEmbed(s, m.ChannelID, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Error running command: %v", err),
			Color:       EmbedColor,
		})
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.CommandType != discordgo.ChatApplicationCommand {
		return
	}

	c := b.registry.Get(data.Name)
	if c == nil {
		b.logger.Warn().Str("command", data.Name).Msg("unknown slash command")
		return
	}

	ctx := &command.SlashInteractionContext{Session: s, Event: i, Storage: b.storage}
	if err := c.Run(context.Background(), &cmd.Invocation{Data: ctx}); err != nil {
		b.logger.Error().Err(err).Str("command", c.Name()).Str("channel", i.ChannelID).Msg("error running slash command")
		_ = RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Error running slash command: %v", err),
			Color:       EmbedColor,
		})
	}
}

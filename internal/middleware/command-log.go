package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/internal/discord"
	"github.com/keshon/sweeper/pkg/cmd"
)

// WithCommandLogger logs every execution and records it in the guild's
// command history.
func WithCommandLogger(logger zerolog.Logger) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			guildID, channelID := location(inv.Data)
			ev := logger.Info()
			if err != nil {
				ev = logger.Error().Err(err)
			}
			user := command.Invoker(inv.Data)
			if user != nil {
				ev = ev.Str("user", user.ID)
			}
			ev.Str("command", c.Name()).
				Strs("args", inv.Args).
				Str("guild", guildID).
				Str("channel", channelID).
				Dur("took", time.Since(start)).
				Msg("command executed")

			if user == nil || guildID == "" {
				return err
			}
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				if v.Storage != nil {
					if e := discord.LogCommand(v.Session, v.Storage, guildID, channelID, user.ID, user.Username, c.Name()); e != nil {
						logger.Warn().Err(e).Str("command", c.Name()).Msg("failed to log command")
					}
				}
			case *command.MessageContext:
				if v.Storage != nil {
					if e := discord.LogCommand(v.Session, v.Storage, guildID, channelID, user.ID, user.Username, c.Name()); e != nil {
						logger.Warn().Err(e).Str("command", c.Name()).Msg("failed to log command")
					}
				}
			}
			return err
		})
	}
}

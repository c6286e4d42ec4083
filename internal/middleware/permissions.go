package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/internal/config"
	"github.com/keshon/sweeper/internal/discord"
	"github.com/keshon/sweeper/pkg/cmd"
)

var PermissionNames = map[int64]string{
	discordgo.PermissionAdministrator:      "Administrator",
	discordgo.PermissionManageChannels:     "Manage Channels",
	discordgo.PermissionManageGuild:        "Manage Server",
	discordgo.PermissionManageMessages:     "Manage Messages",
	discordgo.PermissionReadMessageHistory: "Read Message History",
	discordgo.PermissionModerateMembers:    "Moderate Members",
}

// PermissionChecker answers whether a user holds a permission (or
// Administrator) in a channel. *platform.Discord satisfies it.
type PermissionChecker interface {
	HasPermission(userID, channelID string, perm int64) (bool, error)
}

// Denied is called with the text shown to a user lacking permissions.
type Denied func(inv *cmd.Invocation, msg string)

// WithUserPermissionCheck lets a command run only when the invoker holds at
// least one of the command's UserPermissions in the channel. The configured
// developer always passes; private channels are left to the command.
func WithUserPermissionCheck(checker PermissionChecker, cfg *config.Config, deny Denied) cmd.Middleware {
	if deny == nil {
		deny = respondDenied
	}
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			guildID, channelID := location(inv.Data)
			user := command.Invoker(inv.Data)
			if guildID == "" || user == nil {
				return c.Run(ctx, inv)
			}
			if config.IsDeveloper(cfg, user.ID) {
				return c.Run(ctx, inv)
			}

			meta, ok := cmd.Root(c).(command.DiscordMeta)
			if !ok || len(meta.UserPermissions()) == 0 {
				return c.Run(ctx, inv)
			}
			required := meta.UserPermissions()

			for _, p := range required {
				has, err := checker.HasPermission(user.ID, channelID, p)
				if err != nil {
					return fmt.Errorf("failed to get user permissions: %w", err)
				}
				if has {
					return c.Run(ctx, inv)
				}
			}

			allowed := make([]string, 0, len(required))
			for _, p := range required {
				name := PermissionNames[p]
				if name == "" {
					name = fmt.Sprintf("0x%x", p)
				}
				allowed = append(allowed, name)
			}
			deny(inv, fmt.Sprintf(
				"You need at least one of the following permissions to run this command:\n`%s`",
				strings.Join(allowed, "`, `"),
			))
			return nil
		})
	}
}

func location(data interface{}) (guildID, channelID string) {
	switch v := data.(type) {
	case *command.SlashInteractionContext:
		return v.Event.GuildID, v.Event.ChannelID
	case *command.MessageContext:
		return v.Event.GuildID, v.Event.ChannelID
	}
	return "", ""
}

func respondDenied(inv *cmd.Invocation, msg string) {
	embed := &discordgo.MessageEmbed{Description: msg}
	switch v := inv.Data.(type) {
	case *command.SlashInteractionContext:
		_ = discord.Respond(v.Session, v.Event, v.Event.ChannelID, embed)
	case *command.MessageContext:
		_ = discord.Respond(v.Session, nil, v.Event.ChannelID, embed)
	}
}

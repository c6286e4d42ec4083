// Package purge exposes the purge engine as Discord commands.
package purge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/internal/discord"
	sweep "github.com/keshon/sweeper/internal/purge"
)

// Usage is shown after "Bad arguments!".
const Usage = "Removes last X messages. Usage: `_purge MESSAGES`"

var countPattern = regexp.MustCompile(`^\d+$`)

// ParseCount accepts exactly one non-negative decimal argument.
func ParseCount(args []string) (int, bool) {
	if len(args) != 1 || !countPattern.MatchString(args[0]) {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

type PurgeCommand struct {
	Service *Service
}

func (c *PurgeCommand) Name() string        { return "purge" }
func (c *PurgeCommand) Description() string { return "Removes last X messages" }
func (c *PurgeCommand) Aliases() []string   { return []string{"clean"} }
func (c *PurgeCommand) Category() string    { return "🧹 Cleanup" }
func (c *PurgeCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionManageMessages}
}

func (c *PurgeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "count",
				Description: "How many of the most recent messages to delete",
				Required:    true,
			},
		},
	}
}

func (c *PurgeCommand) Run(_ context.Context, data interface{}) error {
	switch v := data.(type) {
	case *command.MessageContext:
		return c.runMessage(v)
	case *command.SlashInteractionContext:
		return c.runSlash(v)
	}
	return nil
}

func (c *PurgeCommand) runMessage(v *command.MessageContext) error {
	e := v.Event
	count, ok := ParseCount(v.Args)
	if !ok {
		c.Service.notify(e.ChannelID, e.Author, &discordgo.MessageEmbed{
			Description: "Bad arguments!\n" + Usage,
		})
		return nil
	}

	_, err := c.Service.Start(sweep.Request{
		RequesterID: e.Author.ID,
		GuildID:     e.GuildID,
		ChannelID:   e.ChannelID,
		Private:     e.GuildID == "",
		Count:       count,
	}, e.Author)
	return err
}

func (c *PurgeCommand) runSlash(v *command.SlashInteractionContext) error {
	e := v.Event
	var count int
	for _, opt := range e.ApplicationCommandData().Options {
		if opt.Name == "count" {
			count = int(opt.IntValue())
		}
	}

	requester := command.Invoker(v)
	req := sweep.Request{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		Private:   e.GuildID == "",
		Count:     count,
	}
	if requester != nil {
		req.RequesterID = requester.ID
	}

	if err := sweep.Validate(req); err != nil {
		return discord.Respond(v.Session, e, e.ChannelID, &discordgo.MessageEmbed{
			Description: discord.RejectionText(err),
		})
	}

	if _, err := c.Service.Start(req, requester); err != nil {
		return err
	}
	return discord.Respond(v.Session, e, e.ChannelID, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Purging the last %d messages...", count),
	})
}

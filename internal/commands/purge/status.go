package purge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/internal/discord"
)

// StatusCommand lists purges that are still running.
type StatusCommand struct {
	Service *Service
}

func (c *StatusCommand) Name() string        { return "purges" }
func (c *StatusCommand) Description() string { return "Lists running purges" }
func (c *StatusCommand) Category() string    { return "🧹 Cleanup" }
func (c *StatusCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionManageMessages}
}

func (c *StatusCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StatusCommand) Run(_ context.Context, data interface{}) error {
	embed := c.Embed(time.Now())
	switch v := data.(type) {
	case *command.MessageContext:
		c.Service.notify(v.Event.ChannelID, v.Event.Author, embed)
	case *command.SlashInteractionContext:
		return discord.Respond(v.Session, v.Event, v.Event.ChannelID, embed)
	}
	return nil
}

// Embed renders the running jobs and queue depth as of now.
func (c *StatusCommand) Embed(now time.Time) *discordgo.MessageEmbed {
	jobs := c.Service.Jobs.List()

	var sb strings.Builder
	if len(jobs) == 0 {
		sb.WriteString("No purges are running.")
	}
	for _, j := range jobs {
		fmt.Fprintf(&sb, "`%s` running for %s\n", j.Name, now.Sub(j.StartedAt).Round(time.Second))
	}

	return &discordgo.MessageEmbed{
		Title:       "Purges",
		Description: strings.TrimRight(sb.String(), "\n"),
		Color:       discord.EmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Queued remote calls", Value: fmt.Sprintf("%d", c.Service.Queue.Len()), Inline: true},
		},
	}
}

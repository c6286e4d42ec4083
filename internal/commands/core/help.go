// Package core holds the informational commands.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/internal/config"
	"github.com/keshon/sweeper/internal/discord"
	"github.com/keshon/sweeper/internal/version"
	"github.com/keshon/sweeper/pkg/cmd"
)

type HelpCommand struct {
	Registry *cmd.Registry
	Prefix   string
}

func (c *HelpCommand) Name() string             { return "help" }
func (c *HelpCommand) Description() string      { return "Get a list of available commands" }
func (c *HelpCommand) Category() string         { return "🕯️ Information" }
func (c *HelpCommand) UserPermissions() []int64 { return nil }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *HelpCommand) Run(_ context.Context, data interface{}) error {
	embed := &discordgo.MessageEmbed{
		Title:       version.AppName + " Help",
		Description: c.Text(),
	}
	switch v := data.(type) {
	case *command.MessageContext:
		return discord.Respond(v.Session, nil, v.Event.ChannelID, embed)
	case *command.SlashInteractionContext:
		return discord.Respond(v.Session, v.Event, v.Event.ChannelID, embed)
	}
	return nil
}

// Text lists the registered commands grouped by category.
func (c *HelpCommand) Text() string {
	byCategory := make(map[string][]cmd.Command)
	for _, rc := range c.Registry.GetAll() {
		cat := ""
		if meta, ok := cmd.Root(rc).(command.DiscordMeta); ok {
			cat = meta.Category()
		}
		byCategory[cat] = append(byCategory[cat], rc)
	}

	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := config.CategoryWeight(cats[i]), config.CategoryWeight(cats[j])
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	for _, cat := range cats {
		if cat != "" {
			fmt.Fprintf(&sb, "**%s**\n", cat)
		}
		for _, rc := range byCategory[cat] {
			fmt.Fprintf(&sb, "`%s%s`", c.Prefix, rc.Name())
			if a, ok := cmd.Root(rc).(cmd.Aliased); ok && len(a.Aliases()) > 0 {
				fmt.Fprintf(&sb, " (`%s`)", strings.Join(a.Aliases(), "`, `"))
			}
			fmt.Fprintf(&sb, " - %s\n", rc.Description())
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

type AboutCommand struct{}

func (c *AboutCommand) Name() string             { return "about" }
func (c *AboutCommand) Description() string      { return "Discover the origin of this bot" }
func (c *AboutCommand) Category() string         { return "🕯️ Information" }
func (c *AboutCommand) UserPermissions() []int64 { return nil }

func (c *AboutCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *AboutCommand) Run(_ context.Context, data interface{}) error {
	embed := &discordgo.MessageEmbed{
		Title:       "ℹ️ About " + version.AppName,
		Description: version.AppDescription,
		Footer:      &discordgo.MessageEmbedFooter{Text: version.String()},
	}
	switch v := data.(type) {
	case *command.MessageContext:
		return discord.Respond(v.Session, nil, v.Event.ChannelID, embed)
	case *command.SlashInteractionContext:
		return discord.Respond(v.Session, v.Event, v.Event.ChannelID, embed)
	}
	return nil
}

package command

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/sweeper/internal/storage"
	"github.com/keshon/sweeper/pkg/cmd"
)

// Discord-specific contexts (what the runtime passes when executing).

type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
}

type MessageContext struct {
	Session *discordgo.Session
	Event   *discordgo.MessageCreate
	Args    []string
	Storage *storage.Storage
}

// SlashProvider is implemented by commands that are also registered as slash commands.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// DiscordMeta is exposed by the Discord adapter so middleware can read
// Category/Permissions without depending on the concrete command type.
type DiscordMeta interface {
	Category() string
	UserPermissions() []int64
}

// DiscordCommand is what individual Discord commands implement. Run receives
// one of the contexts above.
type DiscordCommand interface {
	Name() string
	Description() string
	Category() string
	UserPermissions() []int64
	Run(ctx context.Context, data interface{}) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the
// universal registry. Optional interfaces are delegated to the inner command.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string             { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string      { return a.Cmd.Description() }
func (a *DiscordAdapter) Category() string         { return a.Cmd.Category() }
func (a *DiscordAdapter) UserPermissions() []int64 { return a.Cmd.UserPermissions() }

func (a *DiscordAdapter) Aliases() []string {
	if al, ok := a.Cmd.(cmd.Aliased); ok {
		return al.Aliases()
	}
	return nil
}

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	if mc, ok := inv.Data.(*MessageContext); ok && mc.Args == nil {
		mc.Args = inv.Args
	}
	return a.Cmd.Run(ctx, inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// RegisterCommand adds a Discord command to reg with the given middlewares.
func RegisterCommand(reg *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) {
	reg.Register(cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...))
}

// Invoker returns the user behind a message or interaction context.
func Invoker(data interface{}) *discordgo.User {
	switch v := data.(type) {
	case *MessageContext:
		return v.Event.Author
	case *SlashInteractionContext:
		if v.Event.Member != nil && v.Event.Member.User != nil {
			return v.Event.Member.User
		}
		return v.Event.User
	}
	return nil
}

package command

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/sweeper/pkg/cmd"
)

type fakeCommand struct {
	got interface{}
}

func (f *fakeCommand) Name() string             { return "purge" }
func (f *fakeCommand) Description() string      { return "Removes last X messages" }
func (f *fakeCommand) Category() string         { return "🧹 Cleanup" }
func (f *fakeCommand) UserPermissions() []int64 { return []int64{discordgo.PermissionManageMessages} }
func (f *fakeCommand) Aliases() []string        { return []string{"clean"} }
func (f *fakeCommand) Run(_ context.Context, data interface{}) error {
	f.got = data
	return nil
}

func TestRegisterCommandExposesAliasesAndMeta(t *testing.T) {
	reg := cmd.NewRegistry()
	inner := &fakeCommand{}
	RegisterCommand(reg, inner)

	c := reg.Get("clean")
	require.NotNil(t, c)
	meta, ok := cmd.Root(c).(DiscordMeta)
	require.True(t, ok)
	assert.Equal(t, []int64{discordgo.PermissionManageMessages}, meta.UserPermissions())

	_, isSlash := cmd.Root(c).(SlashProvider)
	assert.True(t, isSlash)
	assert.Nil(t, cmd.Root(c).(SlashProvider).SlashDefinition())
}

func TestAdapterCopiesArgsIntoMessageContext(t *testing.T) {
	inner := &fakeCommand{}
	a := &DiscordAdapter{Cmd: inner}
	mc := &MessageContext{Event: &discordgo.MessageCreate{Message: &discordgo.Message{}}}

	require.NoError(t, a.Run(context.Background(), &cmd.Invocation{Args: []string{"150"}, Data: mc}))

	assert.Same(t, mc, inner.got)
	assert.Equal(t, []string{"150"}, mc.Args)
}

func TestInvoker(t *testing.T) {
	author := &discordgo.User{ID: "1"}
	member := &discordgo.User{ID: "2"}
	dm := &discordgo.User{ID: "3"}

	assert.Same(t, author, Invoker(&MessageContext{Event: &discordgo.MessageCreate{Message: &discordgo.Message{Author: author}}}))
	assert.Same(t, member, Invoker(&SlashInteractionContext{Event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Member: &discordgo.Member{User: member}}}}))
	assert.Same(t, dm, Invoker(&SlashInteractionContext{Event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: dm}}}))
	assert.Nil(t, Invoker("other"))
}

package purge

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/internal/discord"
	"github.com/keshon/sweeper/internal/history"
	"github.com/keshon/sweeper/internal/queue"
	"github.com/keshon/sweeper/pkg/jobmgr"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		args []string
		want int
		ok   bool
	}{
		{args: []string{"150"}, want: 150, ok: true},
		{args: []string{"0"}, want: 0, ok: true},
		{args: []string{"1"}, want: 1, ok: true},
		{args: nil},
		{args: []string{}},
		{args: []string{"-5"}},
		{args: []string{"10", "20"}},
		{args: []string{"ten"}},
		{args: []string{"12a"}},
		{args: []string{"99999999999999999999999"}},
	}
	for _, tt := range tests {
		got, ok := ParseCount(tt.args)
		assert.Equal(t, tt.ok, ok, "%v", tt.args)
		assert.Equal(t, tt.want, got, "%v", tt.args)
	}
}

type inlineQueue struct{}

func (inlineQueue) Do(ctx context.Context, task queue.Task) error { return task(ctx) }
func (inlineQueue) Enqueue(task queue.Task, done func(error)) {
	done(task(context.Background()))
}
func (inlineQueue) Len() int { return 0 }

type channelHistory struct {
	mu      sync.Mutex
	items   []history.Item
	deleted []string
}

func newChannelHistory(n int) *channelHistory {
	h := &channelHistory{}
	for i := n; i > 0; i-- {
		h.items = append(h.items, history.Item{ID: strconv.Itoa(i)})
	}
	return h
}

func (h *channelHistory) Messages(_ context.Context, _ string, before string, limit int) ([]history.Item, error) {
	start := 0
	if before != "" {
		for i, it := range h.items {
			if it.ID == before {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(h.items))
	return append([]history.Item(nil), h.items[start:end]...), nil
}

func (h *channelHistory) BulkDelete(_ context.Context, _ string, ids []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, ids...)
	return nil
}

type embedLog struct {
	mu   sync.Mutex
	sent []*discordgo.MessageEmbed
}

func (l *embedLog) ChannelMessageSendEmbed(_ string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, embed)
	return &discordgo.Message{}, nil
}

func (l *embedLog) descriptions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.sent {
		out = append(out, e.Description)
	}
	return out
}

func newTestService(historySize int) (*Service, *channelHistory, *embedLog) {
	remote := newChannelHistory(historySize)
	sender := &embedLog{}
	return &Service{
		Queue:  inlineQueue{},
		Remote: remote,
		Sender: sender,
		Jobs:   jobmgr.NewManager(nil),
		Logger: zerolog.Nop(),
	}, remote, sender
}

func message(guildID string, args ...string) *command.MessageContext {
	return &command.MessageContext{
		Event: &discordgo.MessageCreate{Message: &discordgo.Message{
			ID:        "m1",
			GuildID:   guildID,
			ChannelID: "chan",
			Author:    &discordgo.User{ID: "42", Username: "alice"},
		}},
		Args: args,
	}
}

func runAndWait(t *testing.T, svc *Service, mc *command.MessageContext) {
	t.Helper()
	require.NoError(t, (&PurgeCommand{Service: svc}).Run(context.Background(), mc))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Jobs.Wait(ctx))
}

func TestPurgeCommandDeletes(t *testing.T) {
	svc, remote, sender := newTestService(200)

	runAndWait(t, svc, message("guild", "150"))

	assert.Len(t, remote.deleted, 150)
	assert.Equal(t, []string{discord.MsgDeleted}, sender.descriptions())
	assert.Equal(t, "150", sender.sent[0].Fields[0].Value)
	assert.Equal(t, "alice", sender.sent[0].Author.Name)
}

func TestPurgeCommandBadArguments(t *testing.T) {
	for _, args := range [][]string{nil, {"x"}, {"1", "2"}} {
		svc, remote, sender := newTestService(10)

		runAndWait(t, svc, message("guild", args...))

		assert.Empty(t, remote.deleted)
		assert.Equal(t, []string{"Bad arguments!\n" + Usage}, sender.descriptions())
	}
}

func TestPurgeCommandRejections(t *testing.T) {
	tests := []struct {
		name  string
		guild string
		count string
		want  string
	}{
		{name: "too few", guild: "guild", count: "1", want: discord.MsgCountTooSmall},
		{name: "direct message", guild: "", count: "5", want: discord.MsgPrivate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, remote, sender := newTestService(10)

			runAndWait(t, svc, message(tt.guild, tt.count))

			assert.Empty(t, remote.deleted)
			assert.Equal(t, []string{tt.want}, sender.descriptions())
		})
	}
}

func TestPurgeCommandShortHistory(t *testing.T) {
	svc, remote, sender := newTestService(80)

	runAndWait(t, svc, message("guild", "150"))

	assert.Empty(t, remote.deleted)
	assert.Equal(t, []string{discord.MsgLoadFailed}, sender.descriptions())
}

func TestStatusEmbed(t *testing.T) {
	svc, _, _ := newTestService(0)
	release := make(chan struct{})
	started := time.Now()
	require.NoError(t, svc.Jobs.StartAsync("purge:chan:abc", func(context.Context) error {
		<-release
		return nil
	}))

	embed := (&StatusCommand{Service: svc}).Embed(started.Add(90 * time.Second))
	close(release)

	assert.Contains(t, embed.Description, "`purge:chan:abc` running for")
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "0", embed.Fields[0].Value)

	require.NoError(t, svc.Jobs.Wait(context.Background()))
	assert.Equal(t, "No purges are running.", (&StatusCommand{Service: svc}).Embed(time.Now()).Description)
}

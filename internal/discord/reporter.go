package discord

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/sweeper/internal/platform"
	"github.com/keshon/sweeper/internal/purge"
	"github.com/keshon/sweeper/internal/queue"
)

// Purge report texts.
const (
	MsgPrivate          = "Cannot purge in DMs!"
	MsgCountTooSmall    = "Can't purge less than 2 messages!"
	MsgLoadFailed       = "Could not load in messages!"
	MsgMissingPerm      = "I do not have the `Manage Messages` permission!"
	MsgBulkDeleteFailed = "Could not bulk delete! Error occurred!"
	MsgDeleted          = ":+1: Deleted!"
	FieldMessageCount   = "Message Count: "
)

// EmbedSender posts an embed to a channel. *discordgo.Session satisfies it.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Enqueuer schedules a remote call. *queue.Queue satisfies it.
type Enqueuer interface {
	Enqueue(task queue.Task, done func(error))
}

// PurgeReporter posts purge progress to the channel the purge runs in. Every
// embed is authored by the requester and sent through the remote call queue,
// so reports arrive in the order the orchestrator produced them.
type PurgeReporter struct {
	sender    EmbedSender
	queue     Enqueuer
	author    *discordgo.MessageEmbedAuthor
	confirmed bool
	logger    zerolog.Logger
}

// NewPurgeReporter returns a reporter for one purge. With confirmed set the
// summary counts only messages in batches Discord accepted; otherwise it
// counts every message that was loaded.
func NewPurgeReporter(sender EmbedSender, q Enqueuer, requester *discordgo.User, confirmed bool, logger zerolog.Logger) *PurgeReporter {
	return &PurgeReporter{
		sender:    sender,
		queue:     q,
		author:    UserAuthor(requester),
		confirmed: confirmed,
		logger:    logger,
	}
}

// RejectionText returns the user-facing text for a purge input error.
func RejectionText(err error) string {
	if errors.Is(err, purge.ErrPrivateContext) {
		return MsgPrivate
	}
	return MsgCountTooSmall
}

func (r *PurgeReporter) Rejected(req purge.Request, err error) {
	r.send(req.ChannelID, &discordgo.MessageEmbed{Description: RejectionText(err)})
}

// Notify posts an arbitrary embed the same way purge reports are posted.
func (r *PurgeReporter) Notify(channelID string, embed *discordgo.MessageEmbed) {
	r.send(channelID, embed)
}

func (r *PurgeReporter) LoadFailed(req purge.Request, _ error) {
	r.send(req.ChannelID, &discordgo.MessageEmbed{Description: MsgLoadFailed})
}

func (r *PurgeReporter) BatchFailed(req purge.Request, res purge.BatchResult) {
	msg := MsgBulkDeleteFailed
	if res.Status == purge.StatusPermissionDenied {
		msg = MsgMissingPerm
	}
	r.send(req.ChannelID, &discordgo.MessageEmbed{Description: msg})
}

func (r *PurgeReporter) Completed(out purge.Outcome) {
	count := out.Loaded
	if r.confirmed {
		count = out.Deleted
	}
	r.send(out.Request.ChannelID, &discordgo.MessageEmbed{
		Description: MsgDeleted,
		Fields: []*discordgo.MessageEmbedField{
			{Name: FieldMessageCount, Value: strconv.Itoa(count), Inline: true},
		},
	})
}

func (r *PurgeReporter) send(channelID string, embed *discordgo.MessageEmbed) {
	embed.Author = r.author
	embed.Color = EmbedColor
	r.queue.Enqueue(func(ctx context.Context) error {
		_, err := r.sender.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
		return platform.Classify(err)
	}, func(err error) {
		if err != nil {
			r.logger.Warn().Err(err).Str("channel", channelID).Msg("failed to send purge report")
		}
	})
}

var _ purge.Reporter = (*PurgeReporter)(nil)

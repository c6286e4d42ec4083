package purge

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/sweeper/internal/discord"
	sweep "github.com/keshon/sweeper/internal/purge"
	"github.com/keshon/sweeper/pkg/jobmgr"
)

// Queue is the shared remote call queue as seen by the purge commands.
type Queue interface {
	sweep.Queue
	Len() int
}

// Service holds what the purge commands need to start and list purges.
type Service struct {
	Queue           Queue
	Remote          sweep.Remote
	Sender          discord.EmbedSender
	Recorder        sweep.Recorder
	Jobs            *jobmgr.Manager
	MaxBatch        int
	ReportConfirmed bool
	Logger          zerolog.Logger
}

func (s *Service) reporter(requester *discordgo.User) *discord.PurgeReporter {
	return discord.NewPurgeReporter(s.Sender, s.Queue, requester, s.ReportConfirmed, s.Logger)
}

// Start runs req in the background as a tracked job. Results are reported
// to the request's channel on behalf of requester.
func (s *Service) Start(req sweep.Request, requester *discordgo.User) (string, error) {
	orch := sweep.New(s.Queue, s.Remote, s.reporter(requester), sweep.Options{
		MaxBatch: s.MaxBatch,
		Recorder: s.Recorder,
		Logger:   s.Logger,
	})

	name := fmt.Sprintf("purge:%s:%s", req.ChannelID, uuid.NewString()[:8])
	err := s.Jobs.StartAsync(name, func(ctx context.Context) error {
		out := orch.Run(ctx, req)
		if out.Stage == sweep.StageLoadFailed {
			return out.Err
		}
		if n := out.FailedBatches(); n > 0 {
			return fmt.Errorf("%d of %d batches failed", n, len(out.Batches))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// notify posts embed to channelID authored by requester.
func (s *Service) notify(channelID string, requester *discordgo.User, embed *discordgo.MessageEmbed) {
	s.reporter(requester).Notify(channelID, embed)
}

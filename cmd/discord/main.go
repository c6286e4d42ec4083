package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/keshon/sweeper/internal/command"
	"github.com/keshon/sweeper/internal/commands/core"
	"github.com/keshon/sweeper/internal/commands/purge"
	"github.com/keshon/sweeper/internal/config"
	"github.com/keshon/sweeper/internal/discord"
	"github.com/keshon/sweeper/internal/logging"
	"github.com/keshon/sweeper/internal/middleware"
	"github.com/keshon/sweeper/internal/platform"
	"github.com/keshon/sweeper/internal/queue"
	"github.com/keshon/sweeper/internal/storage"
	v "github.com/keshon/sweeper/internal/version"
	"github.com/keshon/sweeper/pkg/cmd"
	"github.com/keshon/sweeper/pkg/jobmgr"
	"github.com/keshon/sweeper/pkg/retrylimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("bot stopped")
	}
	logger.Info().Msg("discord bot exited cleanly")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Str("version", v.Version).Msgf("starting %s bot", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer store.Close()

	q := queue.New(queue.Options{
		Limiter: retrylimit.NewAdaptiveLimiter(
			rate.Limit(cfg.QueueRate),
			rate.Limit(1),
			rate.Limit(cfg.QueueMaxRate),
			rate.Limit(0.5),
			0.5,
		),
		Retry: retrylimit.RetryConfig{
			MaxAttempts:  cfg.QueueMaxAttempts,
			InitialDelay: cfg.QueueBackoffInitial,
			MaxDelay:     cfg.QueueBackoffMax,
			Multiplier:   2,
			Jitter:       true,
		},
		Logger: logger,
	})
	queueDone := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(queueDone)
	}()

	jobs := jobmgr.NewManager(func(status string) {
		logger.Debug().Str("status", status).Msg("job")
	})

	reg := cmd.NewRegistry()
	bot, err := discord.NewBot(cfg, store, reg, logger)
	if err != nil {
		return err
	}
	remote := platform.New(bot.Session())

	svc := &purge.Service{
		Queue:           q,
		Remote:          remote,
		Sender:          bot.Session(),
		Recorder:        store,
		Jobs:            jobs,
		MaxBatch:        cfg.PurgeMaxBatch,
		ReportConfirmed: cfg.PurgeReportConfirmed,
		Logger:          logger,
	}

	guarded := []cmd.Middleware{
		middleware.WithUserPermissionCheck(remote, cfg, nil),
		middleware.WithCommandLogger(logger),
	}
	command.RegisterCommand(reg, &purge.PurgeCommand{Service: svc}, guarded...)
	command.RegisterCommand(reg, &purge.StatusCommand{Service: svc}, guarded...)
	command.RegisterCommand(reg, &core.HelpCommand{Registry: reg, Prefix: cfg.CommandPrefix}, middleware.WithCommandLogger(logger))
	command.RegisterCommand(reg, &core.AboutCommand{}, middleware.WithCommandLogger(logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	botStopped := false
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case runErr = <-errCh:
		botStopped = true
	}

	// Purges cannot be cancelled; give running ones a chance to finish
	// before the queue stops.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer drainCancel()
	if err := jobs.Wait(drainCtx); err != nil {
		logger.Warn().Str("jobs", jobs.Status()).Msg("purges still running at shutdown")
	}

	cancel()
	<-queueDone
	if !botStopped {
		runErr = <-errCh
	}
	return runErr
}

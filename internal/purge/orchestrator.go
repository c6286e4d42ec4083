package purge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keshon/sweeper/internal/history"
	"github.com/keshon/sweeper/internal/queue"
)

// Options configures an Orchestrator.
type Options struct {
	// MaxBatch caps the batch size; values outside 1..MaxBatchSize mean MaxBatchSize.
	MaxBatch int
	Recorder Recorder
	Logger   zerolog.Logger
}

// Orchestrator runs purges. It is safe for concurrent use: every run gets its
// own history cache, and all remote calls go through the shared queue.
type Orchestrator struct {
	queue    Queue
	remote   Remote
	reporter Reporter
	recorder Recorder
	maxBatch int
	logger   zerolog.Logger

	now       func() time.Time
	cacheSeen func(*history.Cache)
}

// New returns an Orchestrator.
func New(q Queue, remote Remote, reporter Reporter, opts Options) *Orchestrator {
	maxBatch := opts.MaxBatch
	if maxBatch <= 0 || maxBatch > MaxBatchSize {
		maxBatch = MaxBatchSize
	}
	return &Orchestrator{
		queue:    q,
		remote:   remote,
		reporter: reporter,
		recorder: opts.Recorder,
		maxBatch: maxBatch,
		logger:   opts.Logger.With().Str("component", "purge").Logger(),
		now:      time.Now,
	}
}

// Run validates req, loads the messages, deletes them batch by batch and
// reports. It returns once every batch has completed. There is no way to
// cancel a run after validation; ctx only bounds the wait for loading.
func (o *Orchestrator) Run(ctx context.Context, req Request) Outcome {
	out := Outcome{
		RunID:     uuid.NewString(),
		Request:   req,
		Requested: req.Count,
		StartedAt: o.now(),
	}
	logger := o.logger.With().
		Str("run_id", out.RunID).
		Str("guild", req.GuildID).
		Str("channel", req.ChannelID).
		Int("count", req.Count).
		Logger()

	if err := Validate(req); err != nil {
		out.Stage = StageRejected
		out.Err = err
		out.FinishedAt = o.now()
		o.reporter.Rejected(req, err)
		return out
	}

	cache := history.New(req.ChannelID, o.remote, o.queue)
	if o.cacheSeen != nil {
		o.cacheSeen(cache)
	}
	cache.SetCapacity(req.Count)

	if err := cache.LoadUntil(ctx, req.Count); err != nil {
		out.Loaded = cache.Len()
		cache.SetCapacity(0)
		out.Stage = StageLoadFailed
		out.Err = err
		out.FinishedAt = o.now()

		ev := logger.Error()
		if errors.Is(err, history.ErrInsufficientHistory) {
			ev = logger.Info()
		}
		ev.Err(err).Int("loaded", out.Loaded).Msg("could not load messages")

		o.reporter.LoadFailed(req, err)
		o.record(logger, out)
		return out
	}

	items := cache.Items()
	out.Loaded = len(items)
	out.Batches = o.deleteAll(req, items, logger)
	for _, b := range out.Batches {
		if b.Status == StatusSucceeded {
			out.Deleted += b.Size
		}
	}
	cache.SetCapacity(0)

	out.Stage = StageCompleted
	out.FinishedAt = o.now()
	logger.Info().
		Int("loaded", out.Loaded).
		Int("deleted", out.Deleted).
		Int("batches", len(out.Batches)).
		Int("failed_batches", out.FailedBatches()).
		Msg("purge finished")

	o.reporter.Completed(out)
	o.record(logger, out)
	return out
}

// deleteAll enqueues one bulk delete per batch without waiting between them,
// then collects the results in completion order, which is enqueue order.
func (o *Orchestrator) deleteAll(req Request, items []history.Item, logger zerolog.Logger) []BatchResult {
	batches := Partition(items, o.maxBatch)
	results := make(chan BatchResult, len(batches))

	for i, batch := range batches {
		index := i
		ids := make([]string, len(batch))
		for j, it := range batch {
			ids[j] = it.ID
		}
		o.queue.Enqueue(func(ctx context.Context) error {
			return o.remote.BulkDelete(ctx, req.ChannelID, ids)
		}, func(err error) {
			results <- classify(index, len(ids), err)
		})
	}

	collected := make([]BatchResult, len(batches))
	for range batches {
		res := <-results
		collected[res.Index] = res

		switch res.Status {
		case StatusPermissionDenied:
			logger.Warn().Int("batch", res.Index).Int("size", res.Size).Msg("bulk delete refused: missing permission")
			o.reporter.BatchFailed(req, res)
		case StatusFailed:
			logger.Error().Err(res.Err).Int("batch", res.Index).Int("size", res.Size).Msg("could not bulk delete")
			o.reporter.BatchFailed(req, res)
		}
	}
	return collected
}

func classify(index, size int, err error) BatchResult {
	res := BatchResult{Index: index, Size: size, Err: err}
	switch {
	case err == nil:
		res.Status = StatusSucceeded
	case errors.Is(err, ErrPermissionDenied):
		res.Status = StatusPermissionDenied
	default:
		res.Status = StatusFailed
	}
	return res
}

func (o *Orchestrator) record(logger zerolog.Logger, out Outcome) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordPurge(context.Background(), out); err != nil {
		logger.Warn().Err(err).Msg("failed to record purge run")
	}
}

var _ Queue = (*queue.Queue)(nil)

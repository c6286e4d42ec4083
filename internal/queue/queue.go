// Package queue implements the process-wide serialized executor for remote
// calls. Every call that counts against the platform's shared rate limit goes
// through one Queue: tasks run one at a time on a single worker, in the order
// they were enqueued, and rate-limit responses are retried transparently.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/keshon/sweeper/pkg/retrylimit"
)

// ErrClosed is passed to completion handlers of tasks that can no longer run
// because the queue stopped.
var ErrClosed = errors.New("queue: closed")

// Task is a deferred unit of remote work.
type Task func(ctx context.Context) error

type job struct {
	task Task
	done func(error)
}

// Options configures a Queue.
type Options struct {
	Limiter *retrylimit.AdaptiveLimiter
	Retry   retrylimit.RetryConfig
	Logger  zerolog.Logger
}

// Queue is a FIFO, single-worker task executor. Enqueue never blocks; Run
// drains the queue until its context is cancelled.
type Queue struct {
	mu      sync.Mutex
	pending []job
	wake    chan struct{}
	closed  bool

	limiter *retrylimit.AdaptiveLimiter
	retry   retrylimit.RetryConfig
	logger  zerolog.Logger
}

// New returns a queue that only retries rate-limit failures. Everything else
// is handed to the task's completion handler untouched.
func New(opts Options) *Queue {
	q := &Queue{
		wake:    make(chan struct{}, 1),
		limiter: opts.Limiter,
		retry:   opts.Retry,
		logger:  opts.Logger.With().Str("component", "queue").Logger(),
	}
	q.retry.Retryable = retrylimit.IsRateLimitError
	q.retry.Logger = &q.logger
	return q
}

// Enqueue schedules task and returns immediately. done, if non-nil, is called
// on the worker goroutine with the task's final error once it ran (or with
// ErrClosed if it never will). done must not block on other queue work.
func (q *Queue) Enqueue(task Task, done func(error)) {
	if done == nil {
		done = func(error) {}
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		done(ErrClosed)
		return
	}
	q.pending = append(q.pending, job{task: task, done: done})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Do enqueues task and waits for it to finish. It must not be called from
// inside a task, since the worker would wait on itself.
func (q *Queue) Do(ctx context.Context, task Task) error {
	result := make(chan error, 1)
	q.Enqueue(task, func(err error) { result <- err })

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run executes tasks until ctx is done. Tasks still pending at that point,
// and tasks enqueued afterwards, complete with ErrClosed.
func (q *Queue) Run(ctx context.Context) {
	q.logger.Info().Msg("remote call queue started")
	defer q.shutdown()

	for {
		j, ok := q.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				continue
			}
		}
		if ctx.Err() != nil {
			j.done(ErrClosed)
			return
		}
		q.execute(ctx, j)
	}
}

func (q *Queue) next() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return job{}, false
	}
	j := q.pending[0]
	q.pending[0] = job{}
	q.pending = q.pending[1:]
	return j, true
}

func (q *Queue) execute(ctx context.Context, j job) {
	err := retrylimit.WithRetryConfig(ctx, func() error {
		return j.task(ctx)
	}, q.limiter, q.retry)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = ErrClosed
	}
	j.done(err)
}

func (q *Queue) shutdown() {
	q.mu.Lock()
	q.closed = true
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, j := range pending {
		j.done(ErrClosed)
	}
	q.logger.Info().Int("dropped", len(pending)).Msg("remote call queue stopped")
}

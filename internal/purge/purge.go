// Package purge deletes the last N messages of a channel in bulk.
//
// A purge loads the requested number of messages into a bounded history
// cache, splits them into batches the platform accepts in one call, and
// schedules one bulk delete per batch on the shared remote call queue. A load
// failure aborts the purge before anything is deleted; a failed batch is
// recorded and reported while the remaining batches still run.
package purge

import (
	"context"
	"errors"
	"time"

	"github.com/keshon/sweeper/internal/history"
	"github.com/keshon/sweeper/internal/queue"
)

const (
	// MinCount is the smallest purge accepted.
	MinCount = 2
	// MaxBatchSize is the platform's limit for one bulk delete call.
	MaxBatchSize = 100
)

var (
	// ErrPrivateContext rejects purges in direct messages.
	ErrPrivateContext = errors.New("purge: not supported in private channels")
	// ErrCountTooSmall rejects purges of fewer than MinCount messages.
	ErrCountTooSmall = errors.New("purge: count below minimum")
	// ErrPermissionDenied is wrapped by Remote implementations when the
	// platform refuses the delete for lack of permission.
	ErrPermissionDenied = errors.New("purge: missing delete permission")
)

// Request is one purge invocation. It is never modified after creation.
type Request struct {
	RequesterID string
	GuildID     string
	ChannelID   string
	Private     bool
	Count       int
}

// Validate returns an input error if req cannot be purged.
func Validate(req Request) error {
	if req.Private {
		return ErrPrivateContext
	}
	if req.Count < MinCount {
		return ErrCountTooSmall
	}
	return nil
}

// IsInputError reports whether err was caused by the request itself.
func IsInputError(err error) bool {
	return errors.Is(err, ErrPrivateContext) || errors.Is(err, ErrCountTooSmall)
}

// Stage is where a purge stopped.
type Stage int

const (
	StageRejected Stage = iota
	StageLoadFailed
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageRejected:
		return "rejected"
	case StageLoadFailed:
		return "load_failed"
	case StageCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// BatchStatus is the tagged result of one bulk delete.
type BatchStatus int

const (
	StatusSucceeded BatchStatus = iota
	StatusPermissionDenied
	StatusFailed
)

func (s BatchStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusPermissionDenied:
		return "permission_denied"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s BatchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name; unknown names decode as StatusFailed.
func (s *BatchStatus) UnmarshalText(b []byte) error {
	*s = ParseBatchStatus(string(b))
	return nil
}

// ParseBatchStatus is the inverse of BatchStatus.String.
func ParseBatchStatus(s string) BatchStatus {
	switch s {
	case "succeeded":
		return StatusSucceeded
	case "permission_denied":
		return StatusPermissionDenied
	default:
		return StatusFailed
	}
}

// BatchResult records how one batch went.
type BatchResult struct {
	Index  int
	Size   int
	Status BatchStatus
	Err    error
}

// Outcome summarizes a purge run.
//
// Loaded is the number of messages that were fetched and scheduled for
// deletion; Deleted counts only messages in batches the platform confirmed.
type Outcome struct {
	RunID      string
	Request    Request
	Stage      Stage
	Err        error
	Requested  int
	Loaded     int
	Deleted    int
	Batches    []BatchResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// FailedBatches returns the number of batches that did not succeed.
func (o Outcome) FailedBatches() int {
	n := 0
	for _, b := range o.Batches {
		if b.Status != StatusSucceeded {
			n++
		}
	}
	return n
}

// Queue is the shared serialized executor for remote calls.
type Queue interface {
	Do(ctx context.Context, task queue.Task) error
	Enqueue(task queue.Task, done func(error))
}

// Remote is the platform side of a purge.
type Remote interface {
	history.Fetcher
	BulkDelete(ctx context.Context, channelID string, ids []string) error
}

// Reporter tells the requester how the purge went.
type Reporter interface {
	Rejected(req Request, err error)
	LoadFailed(req Request, err error)
	BatchFailed(req Request, res BatchResult)
	Completed(out Outcome)
}

// Recorder persists finished runs.
type Recorder interface {
	RecordPurge(ctx context.Context, out Outcome) error
}

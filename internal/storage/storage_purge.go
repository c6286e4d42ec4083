package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/keshon/sweeper/internal/purge"
)

// PurgeRun is a stored purge outcome.
type PurgeRun struct {
	ID          string
	GuildID     string
	ChannelID   string
	RequesterID string
	Stage       string
	Requested   int
	Loaded      int
	Deleted     int
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Batches     []PurgeBatch
}

// PurgeBatch is one stored bulk delete result.
type PurgeBatch struct {
	Index  int
	Size   int
	Status purge.BatchStatus
	Error  string
}

// RecordPurge stores a finished purge and its batches.
func (s *Storage) RecordPurge(ctx context.Context, out purge.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purge_runs
			(id, guild_id, channel_id, requester_id, stage, requested, loaded, deleted, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.RunID, out.Request.GuildID, out.Request.ChannelID, out.Request.RequesterID,
		out.Stage.String(), out.Requested, out.Loaded, out.Deleted, errString(out.Err),
		out.StartedAt.UnixMilli(), out.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert purge run %s: %w", out.RunID, err)
	}

	if len(out.Batches) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO purge_batches (run_id, batch_index, size, status, error) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, b := range out.Batches {
			if _, err := stmt.ExecContext(ctx, out.RunID, b.Index, b.Size, b.Status.String(), errString(b.Err)); err != nil {
				return fmt.Errorf("failed to insert batch %d of %s: %w", b.Index, out.RunID, err)
			}
		}
	}
	return tx.Commit()
}

// ListPurgeRuns returns the newest runs of a guild (all guilds when guildID
// is empty), batches included.
func (s *Storage) ListPurgeRuns(ctx context.Context, guildID string, limit int) ([]PurgeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, channel_id, requester_id, stage, requested, loaded, deleted, error, started_at, finished_at
		FROM purge_runs
		WHERE ? = '' OR guild_id = ?
		ORDER BY started_at DESC, id
		LIMIT ?`, guildID, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query purge runs: %w", err)
	}

	var runs []PurgeRun
	for rows.Next() {
		var r PurgeRun
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.GuildID, &r.ChannelID, &r.RequesterID, &r.Stage,
			&r.Requested, &r.Loaded, &r.Deleted, &r.Error, &started, &finished); err != nil {
			rows.Close()
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		batches, err := s.purgeBatches(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Batches = batches
	}
	return runs, nil
}

// GetPurgeRun returns one run by ID.
func (s *Storage) GetPurgeRun(ctx context.Context, id string) (*PurgeRun, error) {
	var r PurgeRun
	var started, finished int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, guild_id, channel_id, requester_id, stage, requested, loaded, deleted, error, started_at, finished_at
		FROM purge_runs WHERE id = ?`, id).
		Scan(&r.ID, &r.GuildID, &r.ChannelID, &r.RequesterID, &r.Stage,
			&r.Requested, &r.Loaded, &r.Deleted, &r.Error, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("purge run %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.UnixMilli(started)
	r.FinishedAt = time.UnixMilli(finished)

	if r.Batches, err = s.purgeBatches(ctx, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Storage) purgeBatches(ctx context.Context, runID string) ([]PurgeBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_index, size, status, error FROM purge_batches WHERE run_id = ? ORDER BY batch_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []PurgeBatch
	for rows.Next() {
		var b PurgeBatch
		var status string
		if err := rows.Scan(&b.Index, &b.Size, &status, &b.Error); err != nil {
			return nil, err
		}
		b.Status = purge.ParseBatchStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

var _ purge.Recorder = (*Storage)(nil)

package storage

import (
	"context"
	"fmt"
	"time"
)

// CommandHistoryRecord is one logged command invocation.
type CommandHistoryRecord struct {
	GuildID     string
	GuildName   string
	ChannelID   string
	ChannelName string
	UserID      string
	Username    string
	Command     string
	Param       string
	Datetime    time.Time
}

// SetCommand logs a command invocation for a guild.
func (s *Storage) SetCommand(guildID, channelID, channelName, guildName, userID, username, command string) error {
	return s.AppendCommandToHistory(context.Background(), CommandHistoryRecord{
		GuildID:     guildID,
		GuildName:   guildName,
		ChannelID:   channelID,
		ChannelName: channelName,
		UserID:      userID,
		Username:    username,
		Command:     command,
		Datetime:    time.Now(),
	})
}

// AppendCommandToHistory stores rec and trims the guild's history to the
// newest commandHistoryLimit records.
func (s *Storage) AppendCommandToHistory(ctx context.Context, rec CommandHistoryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO command_history
			(guild_id, guild_name, channel_id, channel_name, user_id, username, command, param, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GuildID, rec.GuildName, rec.ChannelID, rec.ChannelName,
		rec.UserID, rec.Username, rec.Command, rec.Param, rec.Datetime.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert command: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM command_history
		WHERE guild_id = ? AND id NOT IN (
			SELECT id FROM command_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?
		)`, rec.GuildID, rec.GuildID, commandHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to trim command history: %w", err)
	}
	return tx.Commit()
}

// FetchCommandHistory returns a guild's logged commands, oldest first.
func (s *Storage) FetchCommandHistory(ctx context.Context, guildID string) ([]CommandHistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, guild_name, channel_id, channel_name, user_id, username, command, param, created_at
		FROM command_history WHERE guild_id = ? ORDER BY id ASC`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query command history: %w", err)
	}
	defer rows.Close()

	var out []CommandHistoryRecord
	for rows.Next() {
		var rec CommandHistoryRecord
		var ms int64
		if err := rows.Scan(&rec.GuildID, &rec.GuildName, &rec.ChannelID, &rec.ChannelName,
			&rec.UserID, &rec.Username, &rec.Command, &rec.Param, &ms); err != nil {
			return nil, err
		}
		rec.Datetime = time.UnixMilli(ms)
		out = append(out, rec)
	}
	return out, rows.Err()
}

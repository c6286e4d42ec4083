package storage

import (
	"context"
	"fmt"
)

// LoadCommandHashes returns the slash command definition hashes last
// registered for a guild, keyed by command name.
func (s *Storage) LoadCommandHashes(ctx context.Context, guildID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, hash FROM command_hashes WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query command hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, hash string
		if err := rows.Scan(&name, &hash); err != nil {
			return nil, err
		}
		out[name] = hash
	}
	return out, rows.Err()
}

// SaveCommandHashes replaces a guild's stored hashes with hashes.
func (s *Storage) SaveCommandHashes(ctx context.Context, guildID string, hashes map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM command_hashes WHERE guild_id = ?`, guildID); err != nil {
		return fmt.Errorf("failed to clear command hashes: %w", err)
	}
	for name, hash := range hashes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO command_hashes (guild_id, name, hash) VALUES (?, ?, ?)`, guildID, name, hash); err != nil {
			return fmt.Errorf("failed to save hash of %s: %w", name, err)
		}
	}
	return tx.Commit()
}

package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/sweeper/internal/storage"
)

// LogCommand records a command execution to storage, resolving channel and
// guild names from state when possible.
func LogCommand(s *discordgo.Session, store *storage.Storage, guildID, channelID, userID, username, commandName string) error {
	channelName := ""
	if s.State != nil {
		if ch, err := s.State.Channel(channelID); err == nil {
			channelName = ch.Name
		}
	}
	guildName := ""
	if s.State != nil && guildID != "" {
		if g, err := s.State.Guild(guildID); err == nil {
			guildName = g.Name
		}
	}
	return store.SetCommand(guildID, channelID, channelName, guildName, userID, username, commandName)
}

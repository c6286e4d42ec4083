package discord

import (
	"github.com/bwmarrin/discordgo"
)

const EmbedColor = 0x2f9e8f

// RespondEmbed sends a public embed response to an interaction.
func RespondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
}

// RespondEmbedEphemeral sends an ephemeral embed response to an interaction.
func RespondEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// MessageEmbed sends an embed to a channel.
func MessageEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := s.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// Respond replies with embed through whatever the invocation came from: an
// ephemeral interaction response for slash commands, a channel message
// otherwise.
func Respond(s *discordgo.Session, i *discordgo.InteractionCreate, channelID string, embed *discordgo.MessageEmbed) error {
	if embed.Color == 0 {
		embed.Color = EmbedColor
	}
	if i != nil {
		return RespondEmbedEphemeral(s, i, embed)
	}
	return MessageEmbed(s, channelID, embed)
}

// UserAuthor renders u as an embed author line.
func UserAuthor(u *discordgo.User) *discordgo.MessageEmbedAuthor {
	if u == nil {
		return nil
	}
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return &discordgo.MessageEmbedAuthor{Name: name, IconURL: u.AvatarURL("")}
}

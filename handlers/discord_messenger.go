package handlers

import (
	"dealboard-bot/navigation"

	"github.com/bwmarrin/discordgo"
)

// discordMessenger adapts a discordgo session to navigation.Messenger.
type discordMessenger struct {
	s *discordgo.Session
}

// NewMessenger wraps a session for the navigation controller.
func NewMessenger(s *discordgo.Session) navigation.Messenger {
	return &discordMessenger{s: s}
}

func (m *discordMessenger) Send(channelID string, content *navigation.Content) (string, error) {
	msg, err := m.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{content.Embed},
		Components: content.Components,
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *discordMessenger) Edit(channelID, messageID string, content *navigation.Content) error {
	embeds := []*discordgo.MessageEmbed{content.Embed}
	_, err := m.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &embeds,
		Components: &content.Components,
	})
	return err
}

func (m *discordMessenger) Exists(channelID, messageID string) bool {
	_, err := m.s.ChannelMessage(channelID, messageID)
	return err == nil
}

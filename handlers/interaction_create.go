package handlers

import (
	"dealboard-bot/bot"
	"dealboard-bot/navigation"

	"github.com/bwmarrin/discordgo"
)

// InteractionCreate handles slash command, autocomplete and message
// component interactions.
func InteractionCreate(b *bot.Bot) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			CommandDispatcher(b, s, i)
		case discordgo.InteractionApplicationCommandAutocomplete:
			HandleAutocomplete(s, i)
		case discordgo.InteractionMessageComponent:
			HandleComponent(b, s, i)
		}
	}
}

// HandleComponent routes button clicks to the navigation protocol. Only the
// nav row exists today; anything else is left unanswered.
func HandleComponent(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.Nav == nil || i.Message == nil {
		return
	}
	if !navigation.IsNavID(i.MessageComponentData().CustomID) {
		return
	}
	b.Nav.HandleClick(newInteraction(s, i))
}

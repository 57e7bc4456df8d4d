package command

import "github.com/bwmarrin/discordgo"

// DealboardCommand defines the structure for the /dealboard command.
type DealboardCommand struct{}

// Definition returns the application command definition.
func (c *DealboardCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "dealboard",
		Description: "Manage the pinned deals board",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "action",
				Description: "What to do with the board",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{
						Name:  "Create or claim the board",
						Value: "init",
					},
					{
						Name:  "Refresh the board now",
						Value: "refresh",
					},
					{
						Name:  "Remove the board",
						Value: "remove",
					},
				},
			},
			{
				Name:         "region",
				Description:  "Storefront region for the board (defaults to the first configured region)",
				Type:         discordgo.ApplicationCommandOptionString,
				Required:     false,
				Autocomplete: true,
			},
			{
				Name:        "channel",
				Description: "Channel for the board (defaults to the current channel)",
				Type:        discordgo.ApplicationCommandOptionChannel,
				Required:    false,
			},
		},
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}

package handlers

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// HandleAutocomplete handles all autocomplete interactions.
func HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "dealboard":
		for _, opt := range data.Options {
			if opt.Name == "region" && opt.Focused {
				handleRegionAutocomplete(s, i, opt.StringValue())
			}
		}
	}
}

func handleRegionAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate, partial string) {
	regions := viper.GetStringSlice("catalog.regions")

	partial = strings.ToLower(partial)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(regions))
	for _, region := range regions {
		if partial != "" && !strings.HasPrefix(strings.ToLower(region), partial) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  strings.ToUpper(region),
			Value: region,
		})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		log.Printf("Error responding to autocomplete interaction: %v", err)
	}
}

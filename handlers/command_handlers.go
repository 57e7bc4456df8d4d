package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"dealboard-bot/bot"
	"dealboard-bot/models"
	"dealboard-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// boardCommandTimeout bounds the slow parts of /dealboard: the page fetch
// behind an init or refresh plus the message round trips.
const boardCommandTimeout = 15 * time.Second

// HandleDealboard handles the logic for the /dealboard command.
func HandleDealboard(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respondEphemeral(s, i, "🚫 This command only works inside a server.")
		return
	}

	options := i.ApplicationCommandData().Options
	optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}

	var action, region string
	channelID := i.ChannelID

	if opt, ok := optionMap["action"]; ok {
		action = opt.StringValue()
	}
	if opt, ok := optionMap["region"]; ok {
		region = opt.StringValue()
	}
	if opt, ok := optionMap["channel"]; ok {
		if ch := opt.ChannelValue(nil); ch != nil {
			channelID = ch.ID
		}
	}

	regions := viper.GetStringSlice("catalog.regions")
	if region == "" && len(regions) > 0 {
		region = regions[0]
	}
	if !validRegion(region, regions) {
		respondEphemeral(s, i, fmt.Sprintf("🚫 Unknown region %q. Configured regions: %s", region, strings.Join(regions, ", ")))
		return
	}

	switch action {
	case "init":
		handleBoardInit(b, s, i, channelID, region)
	case "refresh":
		handleBoardRefresh(b, s, i)
	case "remove":
		handleBoardRemove(b, s, i)
	default:
		respondEphemeral(s, i, "🚫 Unknown action.")
	}
}

// handleBoardInit creates the board in the requested channel, or claims the
// already stored message when the board stays where it is.
func handleBoardInit(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate, channelID, region string) {
	respondEphemeral(s, i, fmt.Sprintf("⏳ Setting up the deals board for region **%s**...", strings.ToUpper(region)))

	guildID := i.GuildID
	go func() {
		existing, err := b.Store.GetBoard(guildID)
		if err != nil {
			log.Printf("Load stored board for guild %s: %v", guildID, err)
		}

		messageID := ""
		if existing != nil && existing.ChannelID == channelID {
			messageID = existing.MessageID
		}

		ctx, cancel := context.WithTimeout(context.Background(), boardCommandTimeout)
		newID, err := b.Nav.CreateBoard(ctx, channelID, messageID, region)
		cancel()
		if err != nil {
			log.Printf("Create board for guild %s: %v", guildID, err)
			utils.Error("dealboard", "init", "guild "+guildID+": "+err.Error())
			followupEphemeral(s, i, "⚠️ Could not set up the board. Check the storefront configuration and try again.")
			return
		}

		// The board moved channels: the old message is orphaned, drop it.
		if existing != nil && existing.ChannelID != channelID {
			if err := s.ChannelMessageDelete(existing.ChannelID, existing.MessageID); err != nil {
				log.Printf("Delete old board message for guild %s: %v", guildID, err)
			}
		}

		board := models.Board{
			GuildID:   guildID,
			ChannelID: channelID,
			MessageID: newID,
			Region:    region,
		}
		if err := b.Store.UpsertBoard(board); err != nil {
			log.Printf("Save board for guild %s: %v", guildID, err)
			followupEphemeral(s, i, "⚠️ Board posted, but saving it failed. It will not survive a restart.")
			return
		}

		utils.Info("dealboard", "init", fmt.Sprintf("guild %s region %s message %s", guildID, region, newID))
		followupEphemeral(s, i, "✅ Deals board is ready.")
	}()
}

// handleBoardRefresh forces an immediate re-render of the stored board.
func handleBoardRefresh(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	existing, err := b.Store.GetBoard(guildID)
	if err != nil {
		log.Printf("Load stored board for guild %s: %v", guildID, err)
	}
	if existing == nil {
		respondEphemeral(s, i, "🚫 No deals board configured here yet. Run `/dealboard action:init` first.")
		return
	}

	respondEphemeral(s, i, "⏳ Refreshing the deals board...")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), boardCommandTimeout)
		err := b.Nav.RefreshBoard(ctx, existing.ChannelID, existing.MessageID, existing.Region)
		cancel()
		if err != nil {
			log.Printf("Refresh board for guild %s: %v", guildID, err)
			utils.Warn("dealboard", "refresh", "guild "+guildID+": "+err.Error())
			followupEphemeral(s, i, "⚠️ Could not refresh the board. If it was deleted, run `/dealboard action:init` again.")
			return
		}
		followupEphemeral(s, i, "✅ Board refreshed.")
	}()
}

// handleBoardRemove drops the stored mapping and the board message itself.
func handleBoardRemove(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID := i.GuildID
	existing, err := b.Store.GetBoard(guildID)
	if err != nil {
		log.Printf("Load stored board for guild %s: %v", guildID, err)
	}
	if existing == nil {
		respondEphemeral(s, i, "🚫 No deals board configured here.")
		return
	}

	if err := b.Store.DeleteBoard(guildID); err != nil {
		log.Printf("Delete board for guild %s: %v", guildID, err)
		respondEphemeral(s, i, "⚠️ Could not remove the board.")
		return
	}
	if err := s.ChannelMessageDelete(existing.ChannelID, existing.MessageID); err != nil {
		log.Printf("Delete board message for guild %s: %v", guildID, err)
	}

	utils.Info("dealboard", "remove", "guild "+guildID)
	respondEphemeral(s, i, "✅ Deals board removed.")
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
}

func validRegion(region string, regions []string) bool {
	for _, r := range regions {
		if strings.EqualFold(r, region) {
			return true
		}
	}
	return false
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

func followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Printf("Error sending followup message: %v", err)
	}
}

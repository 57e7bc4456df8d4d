package navigation

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"dealboard-bot/models"
)

const (
	BoardColor = 0xe67e22 // Orange

	// Discord caps embeds at 25 fields; pages are configured smaller but a
	// misconfigured page size must not make every render fail.
	maxEmbedFields = 25
)

// Render builds the board content for one page of a region. Pure: no clock,
// no I/O, so a superseded render can be thrown away at no cost. The buttons
// carry epoch; prev is disabled on the first page and next on the last, and
// the two ids never collide even on a single-page board.
func Render(region string, pageIndex int, page *models.Page, epoch int64) *Content {
	last := page.TotalPages - 1
	if last < 0 {
		last = 0
	}
	cur := pageIndex
	if cur > last {
		cur = last
	}
	if cur < 0 {
		cur = 0
	}

	prev := cur - 1
	if prev < 0 {
		prev = 0
	}

	row := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Prev",
				Style:    discordgo.SecondaryButton,
				Emoji:    &discordgo.ComponentEmoji{Name: "◀️"},
				CustomID: FormatCustomID(region, prev, epoch),
				Disabled: cur == 0,
			},
			discordgo.Button{
				Label:    "Next",
				Style:    discordgo.SecondaryButton,
				Emoji:    &discordgo.ComponentEmoji{Name: "▶️"},
				CustomID: FormatCustomID(region, cur+1, epoch),
				Disabled: cur >= last,
			},
		},
	}

	return &Content{
		Embed:      buildEmbed(region, cur, last+1, page.Items),
		Components: []discordgo.MessageComponent{row},
	}
}

func buildEmbed(region string, pageIndex, totalPages int, items []models.SaleItem) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🔥 Deals (%s) · Page %d/%d", strings.ToUpper(region), pageIndex+1, totalPages),
		Color: BoardColor,
	}

	if len(items) == 0 {
		embed.Description = "No discounted items on this page right now."
		return embed
	}
	if len(items) > maxEmbedFields {
		items = items[:maxEmbedFields]
	}

	for _, item := range items {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%s · -%d%%", item.Name, item.DiscountPercent),
			Value: itemLine(item),
		})
	}
	return embed
}

// itemLine formats one deal row: final price bold, original struck through,
// store link when the row carried one. Rows kept on an explicit percent may
// have no parseable prices at all.
func itemLine(item models.SaleItem) string {
	var parts []string
	if item.FinalPriceText != "" {
		price := "**" + item.FinalPriceText + "**"
		if item.OriginalPriceText != "" {
			price += " ~~" + item.OriginalPriceText + "~~"
		}
		parts = append(parts, price)
	}
	if item.URL != "" {
		parts = append(parts, "[View]("+item.URL+")")
	}
	if len(parts) == 0 {
		return "On sale now"
	}
	return strings.Join(parts, " · ")
}

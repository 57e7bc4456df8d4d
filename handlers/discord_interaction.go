package handlers

import (
	"dealboard-bot/navigation"
	"dealboard-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// discordInteraction adapts one component interaction event to
// navigation.Interaction. The delivered message snapshot still carries the
// button row as rendered before the click, which is what RestoreButtons
// puts back.
type discordInteraction struct {
	s *discordgo.Session
	i *discordgo.InteractionCreate
}

func newInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) *discordInteraction {
	return &discordInteraction{s: s, i: i}
}

func (d *discordInteraction) CustomID() string {
	return d.i.MessageComponentData().CustomID
}

func (d *discordInteraction) MessageID() string {
	return d.i.Message.ID
}

func (d *discordInteraction) ChannelID() string {
	return d.i.ChannelID
}

func (d *discordInteraction) UserID() string {
	return utils.InteractionUserID(d.i)
}

// Acknowledge defers the component interaction: Discord stops the spinner
// and the original message stays editable through the session.
func (d *discordInteraction) Acknowledge() error {
	return d.s.InteractionRespond(d.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

func (d *discordInteraction) RespondEphemeral(text string) error {
	return d.s.InteractionRespond(d.i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func (d *discordInteraction) FollowupEphemeral(text string) error {
	_, err := d.s.FollowupMessageCreate(d.i.Interaction, true, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

func (d *discordInteraction) DisableButtons() error {
	comps := transformButtons(d.i.Message.Components, func(b discordgo.Button) discordgo.Button {
		b.Disabled = true
		return b
	})
	return d.editComponents(comps)
}

func (d *discordInteraction) RestoreButtons(epoch int64) error {
	comps := transformButtons(d.i.Message.Components, func(b discordgo.Button) discordgo.Button {
		b.CustomID = navigation.RewriteEpoch(b.CustomID, epoch)
		return b
	})
	return d.editComponents(comps)
}

func (d *discordInteraction) editComponents(comps []discordgo.MessageComponent) error {
	_, err := d.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    d.i.ChannelID,
		ID:         d.i.Message.ID,
		Components: &comps,
	})
	return err
}

// transformButtons rebuilds the component tree with fn applied to every
// button. The gateway delivers rows and buttons as pointers; anything else
// passes through untouched.
func transformButtons(src []discordgo.MessageComponent, fn func(discordgo.Button) discordgo.Button) []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(src))
	for _, comp := range src {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok {
			out = append(out, comp)
			continue
		}
		newRow := discordgo.ActionsRow{}
		for _, inner := range row.Components {
			if btn, ok := inner.(*discordgo.Button); ok {
				newRow.Components = append(newRow.Components, fn(*btn))
			} else {
				newRow.Components = append(newRow.Components, inner)
			}
		}
		out = append(out, newRow)
	}
	return out
}

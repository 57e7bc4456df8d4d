package navigation

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Content is one rendered board: the deals embed plus the nav button row.
type Content struct {
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// Messenger covers the channel operations navigation performs on the board
// message. The concrete Discord session lives behind it so the protocol can
// be exercised without a gateway connection.
type Messenger interface {
	Send(channelID string, content *Content) (messageID string, err error)
	Edit(channelID, messageID string, content *Content) error
	Exists(channelID, messageID string) bool
}

// Interaction is one button click as the controller sees it: identity of the
// message and clicker, plus the replies the protocol can give. Acknowledge
// must be called within Discord's response deadline; afterwards only
// FollowupEphemeral can reach the clicker.
type Interaction interface {
	CustomID() string
	MessageID() string
	ChannelID() string
	UserID() string

	Acknowledge() error
	RespondEphemeral(text string) error
	FollowupEphemeral(text string) error

	// DisableButtons greys out the currently rendered nav row in place.
	DisableButtons() error
	// RestoreButtons re-enables the rendered row with its original disabled
	// flags, rewriting the button ids to carry epoch.
	RestoreButtons(epoch int64) error
}

const customIDPrefix = "nav"

// IsNavID reports whether a component custom id belongs to the nav row.
func IsNavID(id string) bool {
	return strings.HasPrefix(id, customIDPrefix+":")
}

// FormatCustomID encodes a nav button target as "nav:<region>:<page>:<epoch>".
func FormatCustomID(region string, pageIndex int, epoch int64) string {
	return customIDPrefix + ":" + region + ":" + strconv.Itoa(pageIndex) + ":" + strconv.FormatInt(epoch, 10)
}

// ParseCustomID decodes a nav button id. ok is false for anything that does
// not parse exactly, including negative pages or epochs; callers treat those
// clicks as malformed rather than guessing.
func ParseCustomID(id string) (region string, pageIndex int, epoch int64, ok bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 4 || parts[0] != customIDPrefix || parts[1] == "" {
		return "", 0, 0, false
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil || page < 0 {
		return "", 0, 0, false
	}
	e, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || e < 0 {
		return "", 0, 0, false
	}
	return parts[1], page, e, true
}

// RewriteEpoch replaces the epoch segment of a nav button id, preserving the
// rest. Non-nav ids pass through untouched.
func RewriteEpoch(id string, epoch int64) string {
	region, page, _, ok := ParseCustomID(id)
	if !ok {
		return id
	}
	return FormatCustomID(region, page, epoch)
}

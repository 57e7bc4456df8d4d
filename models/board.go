package models

// Board is the persistent mapping from a guild to its pinned sale board
// message. One board per guild; the message is edited in place, never resent.
type Board struct {
	GuildID   string `db:"guild_id"` // Unique
	ChannelID string `db:"channel_id"`
	MessageID string `db:"message_id"`
	Region    string `db:"region"`
	UpdatedAt int64  `db:"updated_at"` // Unix timestamp of the last (re)initialization
}

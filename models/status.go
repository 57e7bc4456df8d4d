package models

import "time"

// RuntimeStatus is the operational snapshot written to the status file after
// every refresh cycle: which boards exist, how their last refresh went, and
// how full the page cache is.
type RuntimeStatus struct {
	LastUpdated time.Time               `json:"last_updated"`
	CachedPages int                     `json:"cached_pages"`
	Boards      map[string]*BoardStatus `json:"boards"` // key is guild_id
}

// BoardStatus records the most recent refresh outcome for one guild's board.
type BoardStatus struct {
	ChannelID   string    `json:"channel_id"`
	MessageID   string    `json:"message_id"`
	Region      string    `json:"region"`
	LastResult  string    `json:"last_result"` // "ok" or the refresh error text
	RefreshedAt time.Time `json:"refreshed_at"`
}

package database

import (
	"fmt"
	"log"

	"dealboard-bot/utils"
)

// MessageChecker reports whether a board message still exists in its channel.
// Satisfied by the navigation messenger.
type MessageChecker interface {
	Exists(channelID, messageID string) bool
}

// CleanupOrphanedBoards iterates through the stored board placements and
// deletes rows whose Discord message is gone, so refresh cycles stop editing
// into the void. A board removed here comes back the next time an admin runs
// the init command.
func CleanupOrphanedBoards(store *BoardStore, checker MessageChecker) {
	log.Println("Starting cleanup of orphaned boards...")

	boards, err := store.AllBoards()
	if err != nil {
		log.Printf("Error loading boards for cleanup: %v", err)
		return
	}

	removed := 0
	for _, board := range boards {
		if checker.Exists(board.ChannelID, board.MessageID) {
			continue
		}

		log.Printf("Board message %s for guild %s no longer exists, removing placement", board.MessageID, board.GuildID)
		if err := store.DeleteBoard(board.GuildID); err != nil {
			log.Printf("Error deleting orphaned board for guild %s: %v", board.GuildID, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		utils.Info("CleanupOrphanedBoards", "Cleanup", fmt.Sprintf("Removed %d orphaned board(s) of %d stored", removed, len(boards)))
	}
	log.Printf("Finished cleanup of orphaned boards, removed %d of %d.", removed, len(boards))
}

package bot

import (
	"context"
	"log"
	"time"

	"dealboard-bot/database"
	"dealboard-bot/utils"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

var (
	c              *cron.Cron
	fullWarmCancel context.CancelFunc
)

// startScheduler starts the cron jobs and the background cache warm.
func startScheduler(b *Bot) {
	log.Println("Initializing scheduler...")
	c = cron.New()

	if viper.GetBool("scheduler.enableBoardRefresh") {
		spec := viper.GetString("scheduler.boardRefreshSpec")
		if _, err := c.AddFunc(spec, func() { refreshBoards(b) }); err != nil {
			log.Fatalf("Could not set up cron job: %v", err)
		}
		log.Printf("Board refresh scheduled with spec %q.", spec)
	} else {
		log.Println("Board refresh disabled by configuration.")
	}

	if viper.GetBool("scheduler.enableBoardCleanup") {
		spec := viper.GetString("scheduler.boardCleanupSpec")
		if _, err := c.AddFunc(spec, func() { cleanupBoards(b) }); err != nil {
			log.Fatalf("Could not set up cleanup cron job: %v", err)
		}
		log.Printf("Board cleanup scheduled with spec %q.", spec)
	} else {
		log.Println("Board cleanup disabled by configuration.")
	}

	c.Start()

	// Re-render stored boards right away based on config, so boards are not
	// stuck on pre-restart data until the first cron tick.
	if viper.GetBool("scheduler.refreshAtStartup") {
		go func() {
			log.Println("Performing initial board refresh on startup...")
			refreshBoards(b)
		}()
	} else {
		log.Println("Skipping initial board refresh on startup as per configuration.")
	}

	if viper.GetBool("scheduler.enableFullWarm") && b.Warmer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		fullWarmCancel = cancel
		regions := viper.GetStringSlice("catalog.regions")
		for _, region := range regions {
			b.Warmer.StartFullWarm(ctx, region)
		}
		log.Printf("Full cache warm started for %d region(s).", len(regions))
	}
}

// refreshBoards re-renders every stored board from a fresh page fetch. Each
// refresh bumps the board's epoch, so buttons rendered before the cycle
// answer stale instead of flipping to pre-refresh data. Outcomes land in the
// status file.
func refreshBoards(b *Bot) {
	boards, err := b.Store.AllBoards()
	if err != nil {
		log.Printf("Board refresh cycle: %v", err)
		utils.Error("scheduler", "refresh", err.Error())
		return
	}
	if len(boards) == 0 {
		return
	}

	log.Printf("Refreshing %d board(s)...", len(boards))
	for _, board := range boards {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := b.Nav.RefreshBoard(ctx, board.ChannelID, board.MessageID, board.Region)
		cancel()
		if err != nil {
			log.Printf("Refresh board for guild %s: %v", board.GuildID, err)
			utils.Warn("scheduler", "refresh", "guild "+board.GuildID+": "+err.Error())
		}
		b.Status.RecordRefresh(board, err)
	}

	b.Status.SetCachedPages(b.Cache.Len())
	if err := b.Status.Save(); err != nil {
		log.Printf("Save runtime status: %v", err)
	}
}

// cleanupBoards drops board placements whose message was deleted out from
// under us, and their status entries with them.
func cleanupBoards(b *Bot) {
	before, err := b.Store.AllBoards()
	if err != nil {
		log.Printf("Board cleanup cycle: %v", err)
		return
	}

	database.CleanupOrphanedBoards(b.Store, b.Msgr)

	after, err := b.Store.AllBoards()
	if err != nil {
		log.Printf("Board cleanup cycle: %v", err)
		return
	}
	remaining := make(map[string]bool, len(after))
	for _, board := range after {
		remaining[board.GuildID] = true
	}
	for _, board := range before {
		if !remaining[board.GuildID] {
			b.Status.Forget(board.GuildID)
		}
	}
	if err := b.Status.Save(); err != nil {
		log.Printf("Save runtime status: %v", err)
	}
}

// stopScheduler stops the cron jobs and the background warm.
func stopScheduler() {
	if fullWarmCancel != nil {
		fullWarmCancel()
	}
	if c != nil {
		c.Stop()
		log.Println("Scheduler stopped.")
	}
}

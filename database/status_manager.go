package database

import (
	"dealboard-bot/models"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StatusManager manages the runtime status file.
type StatusManager struct {
	statusFile string
	mutex      sync.Mutex
	status     *models.RuntimeStatus
}

// NewStatusManager creates a new status manager.
func NewStatusManager(statusFile string) *StatusManager {
	return &StatusManager{
		statusFile: statusFile,
		status: &models.RuntimeStatus{
			Boards: make(map[string]*models.BoardStatus),
		},
	}
}

// RecordRefresh records the outcome of one board's refresh. A nil result
// means the refresh succeeded.
func (sm *StatusManager) RecordRefresh(board models.Board, result error) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	status := &models.BoardStatus{
		ChannelID:   board.ChannelID,
		MessageID:   board.MessageID,
		Region:      board.Region,
		LastResult:  "ok",
		RefreshedAt: time.Now(),
	}
	if result != nil {
		status.LastResult = result.Error()
	}
	sm.status.Boards[board.GuildID] = status
}

// SetCachedPages updates the cache occupancy reported in the snapshot.
func (sm *StatusManager) SetCachedPages(n int) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.status.CachedPages = n
}

// Forget drops a guild's entry, used when its board placement is removed.
func (sm *StatusManager) Forget(guildID string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	delete(sm.status.Boards, guildID)
}

// Save commits the current runtime status to the JSON file.
func (sm *StatusManager) Save() error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.status.LastUpdated = time.Now()

	// Ensure the directory exists.
	dir := filepath.Dir(sm.statusFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	// Marshal the data to JSON.
	data, err := json.MarshalIndent(sm.status, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	// Write the file, overwriting it if it exists.
	if err := os.WriteFile(sm.statusFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}

	return nil
}

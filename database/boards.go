package database

import (
	"database/sql"
	"fmt"
	"time"

	"dealboard-bot/models"
)

// BoardStore handles persistence of board message placements, one per guild.
type BoardStore struct {
	db *sql.DB
}

// NewBoardStore wraps an initialized database connection.
func NewBoardStore(db *sql.DB) *BoardStore {
	return &BoardStore{db: db}
}

// UpsertBoard saves or replaces the board placement for a guild.
func (s *BoardStore) UpsertBoard(board models.Board) error {
	query := `
    INSERT OR REPLACE INTO boards (guild_id, channel_id, message_id, region, updated_at)
    VALUES (?, ?, ?, ?, ?);`

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for saving board: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(board.GuildID, board.ChannelID, board.MessageID, board.Region, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save board for guild %s: %w", board.GuildID, err)
	}

	return nil
}

// GetBoard returns the board placement for a guild, or nil when none is stored.
func (s *BoardStore) GetBoard(guildID string) (*models.Board, error) {
	query := "SELECT guild_id, channel_id, message_id, region, updated_at FROM boards WHERE guild_id = ?"

	var board models.Board
	err := s.db.QueryRow(query, guildID).Scan(
		&board.GuildID,
		&board.ChannelID,
		&board.MessageID,
		&board.Region,
		&board.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query board for guild %s: %w", guildID, err)
	}

	return &board, nil
}

// AllBoards returns every stored board placement.
func (s *BoardStore) AllBoards() ([]models.Board, error) {
	rows, err := s.db.Query("SELECT guild_id, channel_id, message_id, region, updated_at FROM boards")
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer rows.Close()

	var boards []models.Board
	for rows.Next() {
		var board models.Board
		if err := rows.Scan(&board.GuildID, &board.ChannelID, &board.MessageID, &board.Region, &board.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board row: %w", err)
		}
		boards = append(boards, board)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate board rows: %w", err)
	}

	return boards, nil
}

// DeleteBoard removes the board placement for a guild.
func (s *BoardStore) DeleteBoard(guildID string) error {
	_, err := s.db.Exec("DELETE FROM boards WHERE guild_id = ?", guildID)
	if err != nil {
		return fmt.Errorf("failed to delete board for guild %s: %w", guildID, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *BoardStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

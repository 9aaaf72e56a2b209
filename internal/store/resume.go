package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photocast/internal/models"
)

const resumeUpsert = `INSERT INTO resume_index (player_id, last_index, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(player_id) DO UPDATE SET last_index = excluded.last_index, updated_at = excluded.updated_at`

// GetResumeIndex returns the last persisted index for a player. The second
// return value is false when the player has no entry.
func (s *Store) GetResumeIndex(playerID string) (int, bool, error) {
	var idx int
	err := s.db.QueryRow(`SELECT last_index FROM resume_index WHERE player_id = ?`, playerID).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("getting resume index: %w", err)
	}
	return idx, true, nil
}

func (s *Store) SetResumeIndex(playerID string, index int) error {
	_, err := s.db.Exec(resumeUpsert, playerID, index, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting resume index: %w", err)
	}
	return nil
}

func (s *Store) DeleteResumeIndex(playerID string) error {
	_, err := s.db.Exec(`DELETE FROM resume_index WHERE player_id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("deleting resume index: %w", err)
	}
	return nil
}

func (s *Store) ClearResumeIndexes() error {
	_, err := s.db.Exec(`DELETE FROM resume_index`)
	if err != nil {
		return fmt.Errorf("clearing resume indexes: %w", err)
	}
	return nil
}

func (s *Store) ListResumeIndexes() ([]models.ResumeEntry, error) {
	rows, err := s.db.Query(`SELECT player_id, last_index, updated_at FROM resume_index ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("listing resume indexes: %w", err)
	}
	defer rows.Close()

	var entries []models.ResumeEntry
	for rows.Next() {
		var e models.ResumeEntry
		if err := rows.Scan(&e.PlayerID, &e.LastIndex, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

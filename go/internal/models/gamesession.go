package models

import (
	"time"

	"github.com/google/uuid"
)

// GameSession records one playthrough from start to game over. A player owns
// many sessions over time; the session is independent of the live profile.
type GameSession struct {
	ID             uuid.UUID  `json:"id"`
	PlayerID       uuid.UUID  `json:"player_id"`
	Score          int        `json:"score"`
	BattlesPlayed  int        `json:"battles_played"`
	BattlesWon     int        `json:"battles_won"`
	LivesRemaining int        `json:"lives_remaining"`
	IsComplete     bool       `json:"is_complete"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is a durable identity keyed by a client-persisted session token.
// CurrentScore resets at the start of each game; BestScore only ever grows.
type Player struct {
	ID            uuid.UUID  `json:"id"`
	SessionToken  string     `json:"session_token"`
	Name          string     `json:"name"`
	CurrentScore  int        `json:"current_score"`
	BestScore     int        `json:"best_score"`
	BattlesPlayed int        `json:"battles_played"`
	BattlesWon    int        `json:"battles_won"`
	AttemptsToday int        `json:"attempts_today"`
	LastPlayedAt  *time.Time `json:"last_played_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// LeaderboardView selects which ranked projection to read.
type LeaderboardView string

const (
	LeaderboardViewBest   LeaderboardView = "best"
	LeaderboardViewRecent LeaderboardView = "recent"
)

// LeaderboardEntry is a denormalized, read-optimized projection of a player
// used for ranked display. It is derived state, never independently owned.
type LeaderboardEntry struct {
	PlayerID      uuid.UUID `json:"player_id"`
	Name          string    `json:"name"`
	BestScore     int       `json:"best_score"`
	BattlesPlayed int       `json:"battles_played"`
	BattlesWon    int       `json:"battles_won"`
	Accuracy      float64   `json:"accuracy"`
	LastPlayedAt  time.Time `json:"last_played_at"`
}

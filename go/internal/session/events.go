package session

import "time"

// EventTypeGameCompleted is the analytics event emitted through the outbox
// when a game session is finalized.
const EventTypeGameCompleted = "GameCompleted"

// GameCompletedPayload is the analytics payload recorded once per finished
// game, in the same transaction as the completion update.
type GameCompletedPayload struct {
	GameID         string    `json:"game_id"`
	PlayerID       string    `json:"player_id"`
	Score          int       `json:"score"`
	BattlesPlayed  int       `json:"battles_played"`
	BattlesWon     int       `json:"battles_won"`
	LivesRemaining int       `json:"lives_remaining"`
	CompletedAt    time.Time `json:"completed_at"`
}

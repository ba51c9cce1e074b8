package player

import "time"

// CreatePlayerRequest represents the data needed to create a new player.
type CreatePlayerRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
	Name         string `json:"name" validate:"required"`
}

// UpdatePlayerRequest is a partial update: nil fields are left untouched.
type UpdatePlayerRequest struct {
	Name          *string    `json:"name,omitempty"`
	CurrentScore  *int       `json:"current_score,omitempty"`
	BestScore     *int       `json:"best_score,omitempty"`
	BattlesPlayed *int       `json:"battles_played,omitempty"`
	BattlesWon    *int       `json:"battles_won,omitempty"`
	AttemptsToday *int       `json:"attempts_today,omitempty"`
	LastPlayedAt  *time.Time `json:"last_played_at,omitempty"`
}

// merge overlays the non-nil fields of other onto a copy of req. Used to
// fold a previously failed patch into the next one.
func (req UpdatePlayerRequest) merge(other UpdatePlayerRequest) UpdatePlayerRequest {
	if other.Name != nil {
		req.Name = other.Name
	}
	if other.CurrentScore != nil {
		req.CurrentScore = other.CurrentScore
	}
	if other.BestScore != nil {
		req.BestScore = other.BestScore
	}
	if other.BattlesPlayed != nil {
		req.BattlesPlayed = other.BattlesPlayed
	}
	if other.BattlesWon != nil {
		req.BattlesWon = other.BattlesWon
	}
	if other.AttemptsToday != nil {
		req.AttemptsToday = other.AttemptsToday
	}
	if other.LastPlayedAt != nil {
		req.LastPlayedAt = other.LastPlayedAt
	}
	return req
}

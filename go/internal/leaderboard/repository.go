package leaderboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
)

// Repository reads ranked player projections from Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

const topPlayersQuery = `
SELECT id, name, best_score, battles_played, battles_won, last_played_at
FROM players
WHERE battles_played > 0
`

// FetchTop returns the top-N leaderboard entries for a view: "best" ranks by
// best score, "recent" by most recent play.
func (r *Repository) FetchTop(ctx context.Context, view models.LeaderboardView, limit int) ([]models.LeaderboardEntry, error) {
	var orderBy string
	switch view {
	case models.LeaderboardViewBest:
		orderBy = "ORDER BY best_score DESC, last_played_at DESC NULLS LAST"
	case models.LeaderboardViewRecent:
		orderBy = "ORDER BY last_played_at DESC NULLS LAST"
	default:
		return nil, fmt.Errorf("unknown leaderboard view: %s", view)
	}

	rows, err := r.db.QueryContext(ctx, topPlayersQuery+orderBy+" LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard view %s: %w", view, err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		var lastPlayed sql.NullTime
		if err := rows.Scan(&entry.PlayerID, &entry.Name, &entry.BestScore, &entry.BattlesPlayed, &entry.BattlesWon, &lastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		if lastPlayed.Valid {
			entry.LastPlayedAt = lastPlayed.Time
		}
		if entry.BattlesPlayed > 0 {
			entry.Accuracy = float64(entry.BattlesWon) / float64(entry.BattlesPlayed)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}

	return entries, nil
}

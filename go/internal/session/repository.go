package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/sqlutil"
)

// UpdateGameSessionRequest carries the per-round counters patched onto a
// game session row.
type UpdateGameSessionRequest struct {
	Score          int  `json:"score"`
	BattlesPlayed  int  `json:"battles_played"`
	BattlesWon     int  `json:"battles_won"`
	LivesRemaining int  `json:"lives_remaining"`
	IsComplete     bool `json:"is_complete"`
}

// Repository implements game session data access operations.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// CreateGameSession allocates a fresh session row for a playthrough.
func (r *Repository) CreateGameSession(ctx context.Context, playerID uuid.UUID, lives int) (*models.GameSession, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO game_sessions (id, player_id, score, battles_played, battles_won, lives_remaining, is_complete, started_at)
		VALUES ($1, $2, 0, 0, 0, $3, FALSE, NOW())
		RETURNING id, player_id, score, battles_played, battles_won, lives_remaining, is_complete, started_at, completed_at`,
		uuid.New(), playerID, lives)

	session, err := scanGameSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create game session: %w", err)
	}
	return session, nil
}

// UpdateGameSession patches the round counters on an in-progress session.
func (r *Repository) UpdateGameSession(ctx context.Context, id uuid.UUID, req UpdateGameSessionRequest) (*models.GameSession, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE game_sessions
		SET score = $2, battles_played = $3, battles_won = $4, lives_remaining = $5, is_complete = $6
		WHERE id = $1
		RETURNING id, player_id, score, battles_played, battles_won, lives_remaining, is_complete, started_at, completed_at`,
		id, req.Score, req.BattlesPlayed, req.BattlesWon, req.LivesRemaining, req.IsComplete)

	session, err := scanGameSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update game session: %w", err)
	}
	return session, nil
}

// CompleteGameSession marks a session complete and records the analytics
// event in the outbox, in one transaction. The outbox relay publishes it to
// the message bus afterwards.
func (r *Repository) CompleteGameSession(ctx context.Context, id uuid.UUID, req UpdateGameSessionRequest, payload []byte) error {
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE game_sessions
			SET score = $2, battles_played = $3, battles_won = $4, lives_remaining = $5, is_complete = TRUE, completed_at = NOW()
			WHERE id = $1 AND is_complete = FALSE`,
			id, req.Score, req.BattlesPlayed, req.BattlesWon, req.LivesRemaining)
		if err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("complete session rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("session already complete")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO analytics_outbox (id, game_id, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, NOW())`,
			uuid.New(), id, EventTypeGameCompleted, payload)
		if err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to complete game session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGameSession(row rowScanner) (*models.GameSession, error) {
	var session models.GameSession
	var completedAt sql.NullTime
	err := row.Scan(
		&session.ID,
		&session.PlayerID,
		&session.Score,
		&session.BattlesPlayed,
		&session.BattlesWon,
		&session.LivesRemaining,
		&session.IsComplete,
		&session.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		session.CompletedAt = &t
	}
	return &session, nil
}

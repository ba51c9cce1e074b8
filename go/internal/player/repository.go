package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
)

// Repository implements player data access operations.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

const playerColumns = `id, session_token, name, current_score, best_score, battles_played, battles_won, attempts_today, last_played_at, created_at`

// GetPlayerBySessionToken retrieves the durable player behind a client
// session token.
func (r *Repository) GetPlayerBySessionToken(ctx context.Context, sessionToken string) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE session_token = $1`,
		sessionToken)

	player, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player by session token: %w", err)
	}
	return player, nil
}

// CreatePlayer creates a new player for a first-time visitor.
func (r *Repository) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO players (id, session_token, name, current_score, best_score, battles_played, battles_won, attempts_today, created_at)
		VALUES ($1, $2, $3, 0, 0, 0, 0, 0, NOW())
		RETURNING `+playerColumns,
		uuid.New(), req.SessionToken, req.Name)

	player, err := scanPlayer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

// UpdatePlayer applies a partial update; nil fields keep their stored value.
func (r *Repository) UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE players
		SET name           = COALESCE($2, name),
		    current_score  = COALESCE($3, current_score),
		    best_score     = COALESCE($4, best_score),
		    battles_played = COALESCE($5, battles_played),
		    battles_won    = COALESCE($6, battles_won),
		    attempts_today = COALESCE($7, attempts_today),
		    last_played_at = COALESCE($8, last_played_at)
		WHERE id = $1
		RETURNING `+playerColumns,
		id,
		req.Name,
		req.CurrentScore,
		req.BestScore,
		req.BattlesPlayed,
		req.BattlesWon,
		req.AttemptsToday,
		req.LastPlayedAt)

	player, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return player, nil
}

func scanPlayer(row *sql.Row) (*models.Player, error) {
	var player models.Player
	var lastPlayed sql.NullTime
	err := row.Scan(
		&player.ID,
		&player.SessionToken,
		&player.Name,
		&player.CurrentScore,
		&player.BestScore,
		&player.BattlesPlayed,
		&player.BattlesWon,
		&player.AttemptsToday,
		&lastPlayed,
		&player.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastPlayed.Valid {
		t := lastPlayed.Time.UTC()
		player.LastPlayedAt = &t
	}
	return &player, nil
}

package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PlayerRepository defines what the app layer needs from the repository.
type PlayerRepository interface {
	GetPlayerBySessionToken(ctx context.Context, sessionToken string) (*models.Player, error)
	CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error)
	UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error)
}

// App handles player business logic. A failed profile patch is stashed and
// folded into the next patch for the same player, so a transient store error
// never blocks the current round.
type App struct {
	repo PlayerRepository

	mu      sync.Mutex
	pending map[uuid.UUID]UpdatePlayerRequest
}

// NewApp creates a new player App.
func NewApp(repo PlayerRepository) *App {
	return &App{
		repo:    repo,
		pending: make(map[uuid.UUID]UpdatePlayerRequest),
	}
}

// GetOrCreate resolves the player behind a session token, creating the
// durable identity on first visit.
func (a *App) GetOrCreate(ctx context.Context, sessionToken, name string) (*models.Player, error) {
	if sessionToken == "" {
		return nil, fmt.Errorf("session token is required")
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	existing, err := a.repo.GetPlayerBySessionToken(ctx, sessionToken)
	if err == nil {
		if existing.Name != name {
			return a.UpdatePlayer(ctx, existing.ID, UpdatePlayerRequest{Name: &name})
		}
		return existing, nil
	}
	if !errors.Is(err, ErrPlayerNotFound) {
		return nil, fmt.Errorf("failed to look up player: %w", err)
	}

	created, err := a.repo.CreatePlayer(ctx, CreatePlayerRequest{
		SessionToken: sessionToken,
		Name:         name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	log.Info().Str("player_id", created.ID.String()).Str("name", created.Name).Msg("created player")
	return created, nil
}

// UpdatePlayer patches a player profile, first folding in any patch that
// failed earlier. On failure the merged patch is stashed for the next
// mutation and the error is returned for logging; callers continue the game.
func (a *App) UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error) {
	a.mu.Lock()
	if stashed, ok := a.pending[id]; ok {
		req = stashed.merge(req)
		delete(a.pending, id)
	}
	a.mu.Unlock()

	updated, err := a.repo.UpdatePlayer(ctx, id, req)
	if err != nil {
		a.mu.Lock()
		a.pending[id] = req
		a.mu.Unlock()
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return updated, nil
}

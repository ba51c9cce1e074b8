package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Store defines what the tracker needs from the game session store.
type Store interface {
	CreateGameSession(ctx context.Context, playerID uuid.UUID, lives int) (*models.GameSession, error)
	UpdateGameSession(ctx context.Context, id uuid.UUID, req UpdateGameSessionRequest) (*models.GameSession, error)
	CompleteGameSession(ctx context.Context, id uuid.UUID, req UpdateGameSessionRequest, payload []byte) error
}

// Tracker records the lifecycle of one playthrough, independent of the
// always-live player profile. Store failures after Start are logged and
// never fatal to the foreground game loop.
type Tracker struct {
	store Store

	mu        sync.Mutex
	session   *models.GameSession
	finalized bool
}

func NewTracker(store Store) *Tracker {
	return &Tracker{
		store: store,
	}
}

// Start allocates a session row with zeroed counters. Calling Start again
// begins a new session; the previous one is left as-is.
func (t *Tracker) Start(ctx context.Context, playerID uuid.UUID, lives int) error {
	session, err := t.store.CreateGameSession(ctx, playerID, lives)
	if err != nil {
		return fmt.Errorf("failed to start game session: %w", err)
	}

	t.mu.Lock()
	t.session = session
	t.finalized = false
	t.mu.Unlock()
	return nil
}

// RecordRound increments battles played (and won, when applicable) and
// patches the row. A store failure is logged; the local tally stays correct
// for the eventual finalize.
func (t *Tracker) RecordRound(ctx context.Context, won bool, score, lives int) {
	t.mu.Lock()
	if t.session == nil || t.finalized {
		t.mu.Unlock()
		return
	}
	t.session.BattlesPlayed++
	if won {
		t.session.BattlesWon++
	}
	t.session.Score = score
	t.session.LivesRemaining = lives
	id := t.session.ID
	req := t.updateRequestLocked()
	t.mu.Unlock()

	if _, err := t.store.UpdateGameSession(ctx, id, req); err != nil {
		log.Warn().Err(err).Str("game_id", id.String()).Msg("failed to record round on game session")
	}
}

// Finalize marks the session complete and records the final tallies exactly
// once; repeat calls are no-ops.
func (t *Tracker) Finalize(ctx context.Context) error {
	t.mu.Lock()
	if t.session == nil || t.finalized {
		t.mu.Unlock()
		return nil
	}
	t.finalized = true
	t.session.IsComplete = true
	id := t.session.ID
	req := t.updateRequestLocked()
	payload := GameCompletedPayload{
		GameID:         t.session.ID.String(),
		PlayerID:       t.session.PlayerID.String(),
		Score:          t.session.Score,
		BattlesPlayed:  t.session.BattlesPlayed,
		BattlesWon:     t.session.BattlesWon,
		LivesRemaining: t.session.LivesRemaining,
		CompletedAt:    time.Now().UTC(),
	}
	t.mu.Unlock()

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal game completed payload: %w", err)
	}

	if err := t.store.CompleteGameSession(ctx, id, req, payloadBytes); err != nil {
		return fmt.Errorf("failed to finalize game session: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the tracked session for display.
func (t *Tracker) Snapshot() models.GameSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return models.GameSession{}
	}
	return *t.session
}

func (t *Tracker) updateRequestLocked() UpdateGameSessionRequest {
	return UpdateGameSessionRequest{
		Score:          t.session.Score,
		BattlesPlayed:  t.session.BattlesPlayed,
		BattlesWon:     t.session.BattlesWon,
		LivesRemaining: t.session.LivesRemaining,
		IsComplete:     t.session.IsComplete,
	}
}

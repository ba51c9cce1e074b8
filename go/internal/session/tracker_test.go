package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	created     int
	updates     []UpdateGameSessionRequest
	completions []UpdateGameSessionRequest
	payloads    [][]byte
	updateErr   error
	completeErr error
}

func (f *fakeStore) CreateGameSession(ctx context.Context, playerID uuid.UUID, lives int) (*models.GameSession, error) {
	f.created++
	return &models.GameSession{
		ID:             uuid.New(),
		PlayerID:       playerID,
		LivesRemaining: lives,
	}, nil
}

func (f *fakeStore) UpdateGameSession(ctx context.Context, id uuid.UUID, req UpdateGameSessionRequest) (*models.GameSession, error) {
	f.updates = append(f.updates, req)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.GameSession{ID: id}, nil
}

func (f *fakeStore) CompleteGameSession(ctx context.Context, id uuid.UUID, req UpdateGameSessionRequest, payload []byte) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completions = append(f.completions, req)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestTrackerRecordsRounds(t *testing.T) {
	store := &fakeStore{}
	tracker := NewTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, uuid.New(), 3))

	tracker.RecordRound(ctx, true, 1000, 3)
	tracker.RecordRound(ctx, false, 1000, 2)
	tracker.RecordRound(ctx, true, 1750, 2)

	snap := tracker.Snapshot()
	assert.Equal(t, 3, snap.BattlesPlayed)
	assert.Equal(t, 2, snap.BattlesWon)
	assert.Equal(t, 1750, snap.Score)
	assert.Equal(t, 2, snap.LivesRemaining)
	assert.Len(t, store.updates, 3)
}

func TestTrackerStoreFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{updateErr: errors.New("store down")}
	tracker := NewTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, uuid.New(), 3))
	tracker.RecordRound(ctx, true, 1000, 3)

	// The local tally survives the failed patch.
	assert.Equal(t, 1, tracker.Snapshot().BattlesPlayed)
}

func TestTrackerFinalizeIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	tracker := NewTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, uuid.New(), 3))
	tracker.RecordRound(ctx, false, 0, 2)
	tracker.RecordRound(ctx, false, 0, 1)
	tracker.RecordRound(ctx, false, 0, 0)

	require.NoError(t, tracker.Finalize(ctx))
	require.NoError(t, tracker.Finalize(ctx))
	require.NoError(t, tracker.Finalize(ctx))

	require.Len(t, store.completions, 1, "finalize must not double-count")
	final := store.completions[0]
	assert.True(t, final.IsComplete)
	assert.Equal(t, 3, final.BattlesPlayed)
	assert.Equal(t, 0, final.BattlesWon)
	assert.Equal(t, 0, final.LivesRemaining)

	var payload GameCompletedPayload
	require.NoError(t, json.Unmarshal(store.payloads[0], &payload))
	assert.Equal(t, 3, payload.BattlesPlayed)
	assert.Equal(t, 0, payload.LivesRemaining)
}

func TestTrackerFinalizeWithoutStartIsNoop(t *testing.T) {
	store := &fakeStore{}
	tracker := NewTracker(store)

	require.NoError(t, tracker.Finalize(context.Background()))
	assert.Empty(t, store.completions)
}

func TestTrackerStartResetsFinalizedFlag(t *testing.T) {
	store := &fakeStore{}
	tracker := NewTracker(store)
	ctx := context.Background()

	require.NoError(t, tracker.Start(ctx, uuid.New(), 3))
	require.NoError(t, tracker.Finalize(ctx))

	require.NoError(t, tracker.Start(ctx, uuid.New(), 3))
	tracker.RecordRound(ctx, true, 1000, 3)
	require.NoError(t, tracker.Finalize(ctx))

	assert.Len(t, store.completions, 2)
}

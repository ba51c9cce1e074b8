package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/makeorbreakshop/thumbnail-battle/go/clients/matchup_api_client"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBattle(id string) *models.Battle {
	return &models.Battle{
		MatchupID: id,
		Channel:   models.Channel{Title: "channel"},
		VideoA:    models.Video{ID: id + "-a", Title: "A"},
		VideoB:    models.Video{ID: id + "-b", Title: "B"},
	}
}

type fakeQueue struct {
	mu       sync.Mutex
	battles  []*models.Battle
	fetchErr error
	primed   int
	fetched  int
}

func (f *fakeQueue) Prime(ctx context.Context, n int) {
	f.mu.Lock()
	f.primed += n
	f.mu.Unlock()
}

func (f *fakeQueue) Take() (*models.Battle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.battles) == 0 {
		return nil, false
	}
	battle := f.battles[0]
	f.battles = f.battles[1:]
	return battle, true
}

func (f *fakeQueue) TakeOrFetch(ctx context.Context) (*models.Battle, error) {
	if battle, ok := f.Take(); ok {
		return battle, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	f.fetched++
	return newBattle(fmt.Sprintf("fetched-%d", f.fetched)), nil
}

func (f *fakeQueue) setFetchErr(err error) {
	f.mu.Lock()
	f.fetchErr = err
	f.mu.Unlock()
}

type fakeVerifier struct {
	mu        sync.Mutex
	calls     int
	err       error
	responses []*matchup_api_client.VerifyAnswerResponse
	gate      chan struct{}
}

func (f *fakeVerifier) VerifyAnswer(ctx context.Context, req matchup_api_client.VerifyAnswerRequest) (*matchup_api_client.VerifyAnswerResponse, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("no scripted response")
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeVerifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeVerifier) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func correct(points int) *matchup_api_client.VerifyAnswerResponse {
	return &matchup_api_client.VerifyAnswerResponse{
		Correct:       true,
		VideoAScore:   1.8,
		VideoBScore:   0.6,
		PointsAwarded: points,
	}
}

func incorrect() *matchup_api_client.VerifyAnswerResponse {
	return &matchup_api_client.VerifyAnswerResponse{
		Correct:     false,
		VideoAScore: 0.6,
		VideoBScore: 1.8,
	}
}

type fakePlayers struct {
	mu        sync.Mutex
	player    models.Player
	updates   []player.UpdatePlayerRequest
	updateErr error
}

func (f *fakePlayers) GetOrCreate(ctx context.Context, sessionToken, name string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.player
	return &p, nil
}

func (f *fakePlayers) UpdatePlayer(ctx context.Context, id uuid.UUID, req player.UpdatePlayerRequest) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, req)
	if req.Name != nil {
		f.player.Name = *req.Name
	}
	if req.CurrentScore != nil {
		f.player.CurrentScore = *req.CurrentScore
	}
	if req.BestScore != nil {
		f.player.BestScore = *req.BestScore
	}
	if req.BattlesPlayed != nil {
		f.player.BattlesPlayed = *req.BattlesPlayed
	}
	if req.BattlesWon != nil {
		f.player.BattlesWon = *req.BattlesWon
	}
	if req.AttemptsToday != nil {
		f.player.AttemptsToday = *req.AttemptsToday
	}
	if req.LastPlayedAt != nil {
		f.player.LastPlayedAt = req.LastPlayedAt
	}
	p := f.player
	return &p, nil
}

func (f *fakePlayers) snapshot() models.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.player
}

type roundRecord struct {
	won   bool
	score int
	lives int
}

type fakeTracker struct {
	mu        sync.Mutex
	started   int
	rounds    []roundRecord
	finalized int
	session   models.GameSession
}

func (f *fakeTracker) Start(ctx context.Context, playerID uuid.UUID, lives int) error {
	f.mu.Lock()
	f.started++
	f.session = models.GameSession{PlayerID: playerID, LivesRemaining: lives}
	f.mu.Unlock()
	return nil
}

func (f *fakeTracker) RecordRound(ctx context.Context, won bool, score, lives int) {
	f.mu.Lock()
	f.rounds = append(f.rounds, roundRecord{won: won, score: score, lives: lives})
	f.session.BattlesPlayed++
	if won {
		f.session.BattlesWon++
	}
	f.session.Score = score
	f.session.LivesRemaining = lives
	f.mu.Unlock()
}

func (f *fakeTracker) Finalize(ctx context.Context) error {
	f.mu.Lock()
	f.finalized++
	f.session.IsComplete = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTracker) Snapshot() models.GameSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeTracker) roundsRecorded() []roundRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]roundRecord, len(f.rounds))
	copy(out, f.rounds)
	return out
}

func (f *fakeTracker) finalizeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finalized
}

type fakeBoard struct {
	mu       sync.Mutex
	recorded []models.LeaderboardEntry
}

func (f *fakeBoard) RecordScore(ctx context.Context, entry models.LeaderboardEntry, commit func(ctx context.Context) error) error {
	f.mu.Lock()
	f.recorded = append(f.recorded, entry)
	f.mu.Unlock()
	return commit(ctx)
}

func (f *fakeBoard) Best(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{}, nil
}

func (f *fakeBoard) Recent(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{}, nil
}

func (f *fakeBoard) recordedEntries() []models.LeaderboardEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LeaderboardEntry, len(f.recorded))
	copy(out, f.recorded)
	return out
}

type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) emit(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) phases() []Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Phase
	for _, ev := range s.events {
		if ev.Type == EventState {
			out = append(out, ev.Phase)
		}
	}
	return out
}

type fixture struct {
	queue    *fakeQueue
	verifier *fakeVerifier
	players  *fakePlayers
	tracker  *fakeTracker
	board    *fakeBoard
	clock    *clockwork.FakeClock
	sink     *eventSink
	machine  *Machine
}

func newFixture() *fixture {
	f := &fixture{
		queue:    &fakeQueue{},
		verifier: &fakeVerifier{},
		players: &fakePlayers{
			player: models.Player{
				ID:           uuid.New(),
				SessionToken: "token-1",
				Name:         "Brandon",
				BestScore:    1200,
			},
		},
		tracker: &fakeTracker{},
		board:   &fakeBoard{},
		clock:   clockwork.NewFakeClock(),
		sink:    &eventSink{},
	}
	f.machine = NewMachine(Deps{
		Queue:         f.queue,
		Verifier:      f.verifier,
		Players:       f.players,
		Tracker:       f.tracker,
		Board:         f.board,
		Clock:         f.clock,
		GameOverDelay: DefaultGameOverDelay,
	}, f.sink.emit)
	return f
}

// awaitGameOver drives the fake clock past the game-over display delay until
// the automatic transition lands. Repeated advances cover the window before
// the timer is registered.
func (f *fixture) awaitGameOver(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.clock.Advance(DefaultGameOverDelay)
		return f.machine.State().Phase() == PhaseGameOver
	}, time.Second, 5*time.Millisecond)
}

func (f *fixture) queueBattles(n int) {
	for i := 0; i < n; i++ {
		f.queue.battles = append(f.queue.battles, newBattle(fmt.Sprintf("battle-%d", i)))
	}
}

func (f *fixture) startPlaying(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.machine.SubmitName(ctx, "token-1", "Brandon"))
	require.NoError(t, f.machine.StartGame(ctx))
	require.Equal(t, PhasePlaying, f.machine.State().Phase())
}

func TestSubmitNameBindsPlayerAndPrimesQueue(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.machine.SubmitName(context.Background(), "token-1", "Brandon"))

	start, ok := f.machine.State().(*StartState)
	require.True(t, ok)
	assert.Equal(t, "Brandon", start.Player.Name)
	assert.Equal(t, 1200, start.Player.BestScore)
	assert.Equal(t, PrimeCount, f.queue.primed)
}

func TestWinningRunAccumulatesScoreAndBest(t *testing.T) {
	f := newFixture()
	f.queueBattles(3)
	f.verifier.responses = []*matchup_api_client.VerifyAnswerResponse{
		correct(1000), correct(1000), correct(750),
	}
	ctx := context.Background()
	f.startPlaying(t)

	require.NoError(t, f.machine.Select(ctx, ChoiceA))
	require.NoError(t, f.machine.Continue(ctx))
	require.NoError(t, f.machine.Select(ctx, ChoiceA))
	require.NoError(t, f.machine.Continue(ctx))
	require.NoError(t, f.machine.Select(ctx, ChoiceA))

	revealed, ok := f.machine.State().(*RevealedState)
	require.True(t, ok)
	assert.Equal(t, 2750, revealed.Score)
	assert.Equal(t, 3, revealed.Lives)
	assert.True(t, revealed.Won)
	assert.False(t, revealed.Terminal)
	require.NotNil(t, revealed.Battle.VideoA.PerfScore)
	assert.InDelta(t, 1.8, *revealed.Battle.VideoA.PerfScore, 0.001)

	p := f.players.snapshot()
	assert.Equal(t, 2750, p.CurrentScore)
	assert.Equal(t, 2750, p.BestScore)
	assert.Equal(t, 3, p.BattlesPlayed)
	assert.Equal(t, 3, p.BattlesWon)

	rounds := f.tracker.roundsRecorded()
	require.Len(t, rounds, 3)
	for _, r := range rounds {
		assert.True(t, r.won)
	}

	// 1000 does not beat the prior best of 1200; 2000 and 2750 do.
	entries := f.board.recordedEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, 2000, entries[0].BestScore)
	assert.Equal(t, 2750, entries[1].BestScore)
}

func TestSecondSelectionWhilePendingIsNoOp(t *testing.T) {
	f := newFixture()
	f.queueBattles(1)
	gate := make(chan struct{})
	f.verifier.gate = gate
	f.verifier.responses = []*matchup_api_client.VerifyAnswerResponse{correct(1000)}
	ctx := context.Background()
	f.startPlaying(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, f.machine.Select(ctx, ChoiceA))
	}()
	assert.Eventually(t, func() bool { return f.verifier.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// The first selection is binding; the second must not reach the verifier.
	require.NoError(t, f.machine.Select(ctx, ChoiceB))
	assert.Equal(t, 1, f.verifier.callCount())
	playing, ok := f.machine.State().(*PlayingState)
	require.True(t, ok)
	assert.True(t, playing.SelectionPending)

	close(gate)
	wg.Wait()

	revealed, ok := f.machine.State().(*RevealedState)
	require.True(t, ok)
	assert.Equal(t, ChoiceA, revealed.Selection)
	assert.Equal(t, 1000, revealed.Score)
}

func TestLosingAllLivesAutoTransitionsToGameOver(t *testing.T) {
	f := newFixture()
	f.queueBattles(3)
	f.verifier.responses = []*matchup_api_client.VerifyAnswerResponse{incorrect()}
	ctx := context.Background()
	f.startPlaying(t)

	require.NoError(t, f.machine.Select(ctx, ChoiceA))
	revealed := f.machine.State().(*RevealedState)
	assert.Equal(t, 2, revealed.Lives)
	assert.False(t, revealed.Terminal)

	require.NoError(t, f.machine.Continue(ctx))
	require.NoError(t, f.machine.Select(ctx, ChoiceA))
	require.NoError(t, f.machine.Continue(ctx))
	require.NoError(t, f.machine.Select(ctx, ChoiceA))

	revealed = f.machine.State().(*RevealedState)
	assert.Equal(t, 0, revealed.Lives)
	assert.True(t, revealed.Terminal)

	// Continue on a lost final round is ignored; the transition is automatic.
	require.NoError(t, f.machine.Continue(ctx))
	assert.Equal(t, PhaseRevealed, f.machine.State().Phase())

	f.awaitGameOver(t)

	over := f.machine.State().(*GameOverState)
	assert.Equal(t, 0, over.Score)
	assert.Equal(t, 1200, over.BestScore)
	assert.Equal(t, 3, over.BattlesPlayed)
	assert.Equal(t, 0, over.BattlesWon)
	assert.Equal(t, 1, f.tracker.finalizeCount())

	rounds := f.tracker.roundsRecorded()
	require.Len(t, rounds, 3)
	for _, r := range rounds {
		assert.False(t, r.won)
	}
	p := f.players.snapshot()
	assert.Equal(t, 3, p.BattlesPlayed)
	assert.Equal(t, 0, p.BattlesWon)
	assert.Equal(t, 1200, p.BestScore)
}

func TestVerifyFailureAwardsNothingAndIsRetryable(t *testing.T) {
	f := newFixture()
	f.queueBattles(1)
	f.verifier.err = fmt.Errorf("verifier down")
	ctx := context.Background()
	f.startPlaying(t)

	require.NoError(t, f.machine.Select(ctx, ChoiceA))

	revealed, ok := f.machine.State().(*RevealedState)
	require.True(t, ok)
	assert.NotEmpty(t, revealed.Err)
	assert.Nil(t, revealed.Outcome)
	assert.Equal(t, 3, revealed.Lives)
	assert.Equal(t, 0, revealed.Score)
	assert.Empty(t, f.tracker.roundsRecorded())

	f.verifier.setErr(nil)
	f.verifier.mu.Lock()
	f.verifier.responses = []*matchup_api_client.VerifyAnswerResponse{correct(800)}
	f.verifier.mu.Unlock()

	require.NoError(t, f.machine.Continue(ctx))

	revealed, ok = f.machine.State().(*RevealedState)
	require.True(t, ok)
	assert.Empty(t, revealed.Err)
	assert.Equal(t, 800, revealed.Score)
	assert.Equal(t, 3, revealed.Lives)
	assert.Len(t, f.tracker.roundsRecorded(), 1)
	assert.Equal(t, 2, f.verifier.callCount())
}

func TestAbandonDiscardsInFlightVerification(t *testing.T) {
	f := newFixture()
	f.queueBattles(1)
	gate := make(chan struct{})
	f.verifier.gate = gate
	f.verifier.responses = []*matchup_api_client.VerifyAnswerResponse{correct(1000)}
	ctx := context.Background()
	f.startPlaying(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, f.machine.Select(ctx, ChoiceA))
	}()
	assert.Eventually(t, func() bool { return f.verifier.callCount() == 1 }, time.Second, 5*time.Millisecond)

	f.machine.Abandon()
	close(gate)
	wg.Wait()

	// The stale completion must not reveal anything or record a round.
	assert.Equal(t, PhasePlaying, f.machine.State().Phase())
	assert.Empty(t, f.tracker.roundsRecorded())
}

func TestEmptyQueueFallsBackThroughLoading(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.machine.SubmitName(ctx, "token-1", "Brandon"))
	require.NoError(t, f.machine.StartGame(ctx))

	assert.Equal(t, PhasePlaying, f.machine.State().Phase())
	assert.Contains(t, f.sink.phases(), PhaseLoading)
}

func TestFailedForegroundFetchIsRetryable(t *testing.T) {
	f := newFixture()
	f.queue.setFetchErr(fmt.Errorf("supplier down"))
	ctx := context.Background()
	require.NoError(t, f.machine.SubmitName(ctx, "token-1", "Brandon"))

	require.Error(t, f.machine.StartGame(ctx))
	loading, ok := f.machine.State().(*LoadingState)
	require.True(t, ok)
	assert.NotEmpty(t, loading.Err)

	f.queue.setFetchErr(nil)
	require.NoError(t, f.machine.Continue(ctx))
	assert.Equal(t, PhasePlaying, f.machine.State().Phase())
}

func TestPlayAgainResetsForNewGame(t *testing.T) {
	f := newFixture()
	f.queueBattles(6)
	f.verifier.responses = []*matchup_api_client.VerifyAnswerResponse{incorrect()}
	ctx := context.Background()
	f.startPlaying(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.machine.Select(ctx, ChoiceA))
		if i < 2 {
			require.NoError(t, f.machine.Continue(ctx))
		}
	}
	f.awaitGameOver(t)

	f.machine.PlayAgain()
	require.Equal(t, PhaseStart, f.machine.State().Phase())

	require.NoError(t, f.machine.StartGame(ctx))
	playing, ok := f.machine.State().(*PlayingState)
	require.True(t, ok)
	assert.Equal(t, StartingLives, playing.Lives)
	assert.Equal(t, 0, playing.Score)
	assert.Equal(t, 2, f.tracker.started)
	assert.Equal(t, 2, f.players.snapshot().AttemptsToday)
}

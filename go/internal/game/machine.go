package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/makeorbreakshop/thumbnail-battle/go/clients/matchup_api_client"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/player"
	"github.com/makeorbreakshop/thumbnail-battle/go/internal/scoring"
	"github.com/rs/zerolog/log"
)

const (
	// StartingLives is the life count at the start of every game.
	StartingLives = 3
	// PrimeCount is how many battles are prefetched when a player arrives.
	PrimeCount = 5
	// SampleInterval drives the live score display ticker.
	SampleInterval = 50 * time.Millisecond
	// DefaultGameOverDelay is how long a lost final round stays on screen
	// before the automatic transition to game over.
	DefaultGameOverDelay = 2500 * time.Millisecond
)

// BattleSource supplies ready battles. Implemented by battlequeue.Queue.
type BattleSource interface {
	Prime(ctx context.Context, n int)
	Take() (*models.Battle, bool)
	TakeOrFetch(ctx context.Context) (*models.Battle, error)
}

// Verifier authoritatively scores a selection. Implemented by the matchup API
// client; the machine never trusts its own elapsed-time estimate for points.
type Verifier interface {
	VerifyAnswer(ctx context.Context, req matchup_api_client.VerifyAnswerRequest) (*matchup_api_client.VerifyAnswerResponse, error)
}

// PlayerService resolves and mutates the durable player profile.
type PlayerService interface {
	GetOrCreate(ctx context.Context, sessionToken, name string) (*models.Player, error)
	UpdatePlayer(ctx context.Context, id uuid.UUID, req player.UpdatePlayerRequest) (*models.Player, error)
}

// SessionRecorder tracks one playthrough for analytics.
type SessionRecorder interface {
	Start(ctx context.Context, playerID uuid.UUID, lives int) error
	RecordRound(ctx context.Context, won bool, score, lives int)
	Finalize(ctx context.Context) error
	Snapshot() models.GameSession
}

// Board is the leaderboard cache surface the machine drives.
type Board interface {
	RecordScore(ctx context.Context, entry models.LeaderboardEntry, commit func(ctx context.Context) error) error
	Best(ctx context.Context) ([]models.LeaderboardEntry, error)
	Recent(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// Deps collects the machine's collaborators.
type Deps struct {
	Queue    BattleSource
	Verifier Verifier
	Players  PlayerService
	Tracker  SessionRecorder
	Board    Board
	Clock    clockwork.Clock
	// GameOverDelay overrides DefaultGameOverDelay; zero or negative means
	// the transition fires immediately.
	GameOverDelay time.Duration
}

// Machine owns one player connection's game. All transitions serialize behind
// one mutex; network calls run outside the lock and every async completion
// revalidates the round epoch before mutating state, so abandoned or
// superseded responses are discarded rather than applied.
type Machine struct {
	queue         BattleSource
	verifier      Verifier
	players       PlayerService
	tracker       SessionRecorder
	board         Board
	clock         clockwork.Clock
	sampler       *scoring.Sampler
	gameOverDelay time.Duration
	emit          func(Event)

	mu     sync.Mutex
	state  State
	player *models.Player
	lives  int
	score  int
	epoch  uint64
}

// NewMachine creates a machine in the welcome phase. The emit callback
// receives every state transition, score tick, and notice; it may be invoked
// from multiple goroutines.
func NewMachine(deps Deps, emit func(Event)) *Machine {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Machine{
		queue:         deps.Queue,
		verifier:      deps.Verifier,
		players:       deps.Players,
		tracker:       deps.Tracker,
		board:         deps.Board,
		clock:         clock,
		sampler:       scoring.NewSampler(clock, SampleInterval),
		gameOverDelay: deps.GameOverDelay,
		emit:          emit,
		state:         &WelcomeState{},
	}
}

// State returns the current phase state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Player returns a copy of the bound player profile, or nil before SubmitName.
func (m *Machine) Player() *models.Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player == nil {
		return nil
	}
	p := *m.player
	return &p
}

// SubmitName binds a player identity to the connection and moves to the ready
// screen. The battle prefetch starts here so the first round feels instant.
func (m *Machine) SubmitName(ctx context.Context, sessionToken, name string) error {
	m.mu.Lock()
	if _, ok := m.state.(*WelcomeState); !ok {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	p, err := m.players.GetOrCreate(ctx, sessionToken, name)
	if err != nil {
		return fmt.Errorf("failed to resolve player: %w", err)
	}

	m.queue.Prime(ctx, PrimeCount)

	m.mu.Lock()
	if _, ok := m.state.(*WelcomeState); !ok {
		m.mu.Unlock()
		return nil
	}
	m.player = p
	m.state = &StartState{Player: p}
	ev := m.stateEventLocked()
	m.mu.Unlock()

	m.emit(ev)
	return nil
}

// StartGame begins a new playthrough: fresh lives and score, a new session
// row, and the first battle. Legal from the ready screen and from game over.
func (m *Machine) StartGame(ctx context.Context) error {
	m.mu.Lock()
	switch m.state.(type) {
	case *StartState, *GameOverState:
	default:
		m.mu.Unlock()
		return nil
	}
	if m.player == nil {
		m.mu.Unlock()
		return fmt.Errorf("no player bound")
	}
	m.epoch++
	epoch := m.epoch
	m.lives = StartingLives
	m.score = 0
	m.player.CurrentScore = 0
	m.player.AttemptsToday++
	id := m.player.ID
	attempts := m.player.AttemptsToday
	m.mu.Unlock()

	if err := m.tracker.Start(ctx, id, StartingLives); err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}

	zero := 0
	if _, err := m.players.UpdatePlayer(ctx, id, player.UpdatePlayerRequest{
		CurrentScore:  &zero,
		AttemptsToday: &attempts,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to reset player score at game start")
	}

	return m.beginRound(ctx, epoch)
}

// Select submits the player's choice for the active round. While a selection
// is pending, any further selection is a no-op; the first one is binding.
func (m *Machine) Select(ctx context.Context, choice Choice) error {
	if choice != ChoiceA && choice != ChoiceB {
		return nil
	}

	m.mu.Lock()
	playing, ok := m.state.(*PlayingState)
	if !ok || playing.SelectionPending {
		m.mu.Unlock()
		return nil
	}
	playing.SelectionPending = true
	m.sampler.Stop()
	elapsed := m.clock.Since(playing.RoundStart)
	battle := playing.Battle
	epoch := playing.epoch
	token := m.player.SessionToken
	m.mu.Unlock()

	return m.verify(ctx, battle, choice, elapsed.Milliseconds(), token, epoch)
}

// Continue advances out of a revealed round, retries a failed verification,
// or retries a failed battle fetch, depending on where the game is stuck.
// Anywhere else it is a no-op.
func (m *Machine) Continue(ctx context.Context) error {
	m.mu.Lock()
	switch s := m.state.(type) {
	case *RevealedState:
		if s.retryPending {
			m.mu.Unlock()
			return nil
		}
		if s.Err != "" {
			s.retryPending = true
			battle, choice, elapsedMs := s.Battle, s.Selection, s.ElapsedMs
			token := m.player.SessionToken
			epoch := m.epoch
			m.mu.Unlock()
			return m.verify(ctx, battle, choice, elapsedMs, token, epoch)
		}
		if s.Terminal {
			m.mu.Unlock()
			return nil
		}
		epoch := m.epoch
		m.mu.Unlock()
		return m.beginRound(ctx, epoch)
	case *LoadingState:
		if s.Err == "" {
			m.mu.Unlock()
			return nil
		}
		epoch := m.epoch
		m.mu.Unlock()
		return m.beginRound(ctx, epoch)
	default:
		m.mu.Unlock()
		return nil
	}
}

// PlayAgain returns from the game-over summary to the ready screen.
func (m *Machine) PlayAgain() {
	m.mu.Lock()
	if _, ok := m.state.(*GameOverState); !ok {
		m.mu.Unlock()
		return
	}
	m.state = &StartState{Player: m.player}
	ev := m.stateEventLocked()
	m.mu.Unlock()

	m.emit(ev)
}

// Abandon tears the game down when the connection goes away. Any in-flight
// verification resolves against a stale epoch and is discarded.
func (m *Machine) Abandon() {
	m.mu.Lock()
	m.epoch++
	m.sampler.Stop()
	m.mu.Unlock()
}

// beginRound takes the next battle, preferring the prefetched queue and
// falling back to a foreground fetch behind a loading screen.
func (m *Machine) beginRound(ctx context.Context, epoch uint64) error {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return nil
	}
	if battle, ok := m.queue.Take(); ok {
		ev := m.enterPlayingLocked(battle)
		m.mu.Unlock()
		m.emit(ev)
		return nil
	}
	m.state = &LoadingState{}
	ev := m.stateEventLocked()
	m.mu.Unlock()
	m.emit(ev)

	battle, err := m.queue.TakeOrFetch(ctx)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.state = &LoadingState{Err: "could not load the next battle"}
		ev := m.stateEventLocked()
		m.mu.Unlock()
		m.emit(ev)
		return fmt.Errorf("failed to load next battle: %w", err)
	}
	ev = m.enterPlayingLocked(battle)
	m.mu.Unlock()
	m.emit(ev)
	return nil
}

// enterPlayingLocked stamps the round start the instant the battle becomes
// interactive and starts the live score sampler.
func (m *Machine) enterPlayingLocked(battle *models.Battle) Event {
	playing := &PlayingState{
		Battle:     battle,
		RoundStart: m.clock.Now(),
		Lives:      m.lives,
		Score:      m.score,
		epoch:      m.epoch,
	}
	m.state = playing
	m.sampler.Start(playing.RoundStart, func(points int) {
		m.emit(Event{Type: EventScoreTick, Points: points})
	})
	return m.stateEventLocked()
}

// verify runs the authoritative scoring call and applies its outcome. A
// response arriving after the epoch has moved on is discarded. A failed call
// parks the round in a revealed error state with points not awarded and
// lives untouched; Continue retries with the original elapsed time.
func (m *Machine) verify(ctx context.Context, battle *models.Battle, choice Choice, elapsedMs int64, token string, epoch uint64) error {
	resp, err := m.verifier.VerifyAnswer(ctx, matchup_api_client.VerifyAnswerRequest{
		MatchupID:       battle.MatchupID,
		Selection:       string(choice),
		ElapsedMs:       elapsedMs,
		PlayerSessionID: token,
	})

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return nil
	}

	if err != nil {
		m.state = &RevealedState{
			Battle:    battle,
			Selection: choice,
			ElapsedMs: elapsedMs,
			Err:       "verification failed",
			Lives:     m.lives,
			Score:     m.score,
		}
		ev := m.stateEventLocked()
		m.mu.Unlock()
		log.Warn().Err(err).Str("matchup_id", battle.MatchupID).Msg("answer verification failed")
		m.emit(ev)
		return nil
	}

	won := resp.Correct
	if won {
		m.score += resp.PointsAwarded
	} else {
		m.lives--
	}
	terminal := !won && m.lives == 0

	scoreA, scoreB := resp.VideoAScore, resp.VideoBScore
	battle.VideoA.PerfScore = &scoreA
	battle.VideoB.PerfScore = &scoreB

	m.state = &RevealedState{
		Battle:    battle,
		Selection: choice,
		ElapsedMs: elapsedMs,
		Outcome: &VerifyOutcome{
			Correct:       resp.Correct,
			PointsAwarded: resp.PointsAwarded,
			VideoAScore:   resp.VideoAScore,
			VideoBScore:   resp.VideoBScore,
		},
		Won:      won,
		Terminal: terminal,
		Lives:    m.lives,
		Score:    m.score,
	}
	score, lives := m.score, m.lives
	ev := m.stateEventLocked()
	m.mu.Unlock()

	m.emit(ev)
	m.tracker.RecordRound(ctx, won, score, lives)
	m.updatePlayerAfterRound(ctx, won, score)

	if terminal {
		go m.scheduleGameOver(epoch)
	}
	return nil
}

// updatePlayerAfterRound patches the durable profile with the round's
// cumulative tallies. The local copy is updated optimistically; a failed
// patch is folded into the next one by the player service. A best-score
// improvement also drives the optimistic leaderboard mutation, with the
// profile patch as its authoritative commit.
func (m *Machine) updatePlayerAfterRound(ctx context.Context, won bool, score int) {
	m.mu.Lock()
	if m.player == nil {
		m.mu.Unlock()
		return
	}
	p := m.player
	played := p.BattlesPlayed + 1
	wins := p.BattlesWon
	if won {
		wins++
	}
	now := m.clock.Now().UTC()
	bestImproved := score > p.BestScore

	p.BattlesPlayed = played
	p.BattlesWon = wins
	p.CurrentScore = score
	p.LastPlayedAt = &now
	if bestImproved {
		p.BestScore = score
	}
	id, name := p.ID, p.Name
	m.mu.Unlock()

	req := player.UpdatePlayerRequest{
		CurrentScore:  &score,
		BattlesPlayed: &played,
		BattlesWon:    &wins,
		LastPlayedAt:  &now,
	}

	if !bestImproved {
		if _, err := m.players.UpdatePlayer(ctx, id, req); err != nil {
			log.Warn().Err(err).Str("player_id", id.String()).Msg("failed to update player after round")
		}
		return
	}

	req.BestScore = &score
	entry := models.LeaderboardEntry{
		PlayerID:      id,
		Name:          name,
		BestScore:     score,
		BattlesPlayed: played,
		BattlesWon:    wins,
		Accuracy:      float64(wins) / float64(played),
		LastPlayedAt:  now,
	}
	err := m.board.RecordScore(ctx, entry, func(ctx context.Context) error {
		_, err := m.players.UpdatePlayer(ctx, id, req)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("player_id", id.String()).Msg("leaderboard update rolled back")
		m.emit(Event{Type: EventNotice, Notice: "leaderboard update failed"})
	}
}

// scheduleGameOver holds the lost final round on screen, then finishes the
// game without requiring input.
func (m *Machine) scheduleGameOver(epoch uint64) {
	if m.gameOverDelay > 0 {
		timer := m.clock.NewTimer(m.gameOverDelay)
		defer timer.Stop()
		<-timer.Chan()
	}
	m.finishGame(context.Background(), epoch)
}

// finishGame finalizes the session and materializes the end-of-game summary.
func (m *Machine) finishGame(ctx context.Context, epoch uint64) {
	m.mu.Lock()
	revealed, ok := m.state.(*RevealedState)
	if !ok || !revealed.Terminal || m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	score := m.score
	m.mu.Unlock()

	if err := m.tracker.Finalize(ctx); err != nil {
		log.Error().Err(err).Msg("failed to finalize game session")
	}
	summary := m.tracker.Snapshot()

	best, err := m.board.Best(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch best leaderboard at game over")
	}
	recent, err := m.board.Recent(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch recent leaderboard at game over")
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	bestScore := score
	if m.player != nil && m.player.BestScore > bestScore {
		bestScore = m.player.BestScore
	}
	m.state = &GameOverState{
		Score:         score,
		BestScore:     bestScore,
		BattlesPlayed: summary.BattlesPlayed,
		BattlesWon:    summary.BattlesWon,
		Best:          best,
		Recent:        recent,
	}
	ev := m.stateEventLocked()
	m.mu.Unlock()

	m.emit(ev)
}

func (m *Machine) stateEventLocked() Event {
	return Event{Type: EventState, Phase: m.state.Phase(), State: m.state}
}

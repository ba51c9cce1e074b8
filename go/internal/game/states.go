package game

import (
	"time"

	"github.com/makeorbreakshop/thumbnail-battle/go/internal/models"
)

// Phase identifies which screen of the game is active.
type Phase string

const (
	PhaseWelcome  Phase = "welcome"
	PhaseStart    Phase = "start"
	PhaseLoading  Phase = "loading"
	PhasePlaying  Phase = "playing"
	PhaseRevealed Phase = "revealed"
	PhaseGameOver Phase = "gameover"
)

// Choice is one of the two selectable videos in a battle.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
)

// State is the tagged union of game phases. Each variant carries only the
// fields meaningful while that phase is active.
type State interface {
	Phase() Phase
}

// WelcomeState collects the player's display name.
type WelcomeState struct{}

func (*WelcomeState) Phase() Phase { return PhaseWelcome }

// StartState is the ready screen between games, showing the player's record.
type StartState struct {
	Player *models.Player `json:"player"`
}

func (*StartState) Phase() Phase { return PhaseStart }

// LoadingState is shown while a foreground battle fetch is in flight. A
// non-empty Err means the fetch failed and a continue input retries it.
type LoadingState struct {
	Err string `json:"error,omitempty"`
}

func (*LoadingState) Phase() Phase { return PhaseLoading }

// PlayingState is an interactive round awaiting a selection. Once a selection
// is pending all further selections are no-ops until the verdict resolves.
type PlayingState struct {
	Battle           *models.Battle `json:"battle"`
	RoundStart       time.Time      `json:"round_start"`
	Lives            int            `json:"lives"`
	Score            int            `json:"score"`
	SelectionPending bool           `json:"-"`

	epoch uint64
}

func (*PlayingState) Phase() Phase { return PhasePlaying }

// VerifyOutcome is the authoritative result of one selection.
type VerifyOutcome struct {
	Correct       bool    `json:"correct"`
	PointsAwarded int     `json:"points_awarded"`
	VideoAScore   float64 `json:"video_a_score"`
	VideoBScore   float64 `json:"video_b_score"`
}

// RevealedState shows the outcome of a round. Outcome is nil exactly when Err
// is set; the retry path re-submits the original selection and elapsed time,
// so a verification outage never costs the player points or lives.
type RevealedState struct {
	Battle    *models.Battle `json:"battle"`
	Selection Choice         `json:"selection"`
	ElapsedMs int64          `json:"elapsed_ms"`
	Outcome   *VerifyOutcome `json:"outcome,omitempty"`
	Err       string         `json:"error,omitempty"`
	Won       bool           `json:"won"`
	Terminal  bool           `json:"terminal"`
	Lives     int            `json:"lives"`
	Score     int            `json:"score"`

	retryPending bool
}

func (*RevealedState) Phase() Phase { return PhaseRevealed }

// GameOverState is the end-of-game summary with the finished session's
// tallies and reconciled leaderboards.
type GameOverState struct {
	Score         int                       `json:"score"`
	BestScore     int                       `json:"best_score"`
	BattlesPlayed int                       `json:"battles_played"`
	BattlesWon    int                       `json:"battles_won"`
	Best          []models.LeaderboardEntry `json:"best,omitempty"`
	Recent        []models.LeaderboardEntry `json:"recent,omitempty"`
}

func (*GameOverState) Phase() Phase { return PhaseGameOver }

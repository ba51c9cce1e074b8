package gateway

import "github.com/makeorbreakshop/thumbnail-battle/go/internal/game"

// Action names the client inputs the gateway accepts over the socket.
type Action string

const (
	ActionSubmitName Action = "submit_name"
	ActionStartGame  Action = "start_game"
	ActionSelect     Action = "select"
	ActionContinue   Action = "continue"
	ActionPlayAgain  Action = "play_again"
)

// Command is one client message. Fields beyond Action are only read by the
// actions that need them.
type Command struct {
	Action       Action      `json:"action"`
	SessionToken string      `json:"session_token,omitempty"`
	Name         string      `json:"name,omitempty"`
	Choice       game.Choice `json:"choice,omitempty"`
}

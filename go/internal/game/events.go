package game

// EventType discriminates what a pushed event carries.
type EventType string

const (
	// EventState carries a full state snapshot after a transition.
	EventState EventType = "state"
	// EventScoreTick carries the live, display-only point estimate.
	EventScoreTick EventType = "score_tick"
	// EventNotice carries a non-blocking informational message.
	EventNotice EventType = "notice"
)

// Event is what the machine pushes to its owner (the gateway connection).
// Events may be emitted from multiple goroutines; sinks must be safe for
// concurrent use.
type Event struct {
	Type   EventType `json:"type"`
	Phase  Phase     `json:"phase,omitempty"`
	State  State     `json:"state,omitempty"`
	Points int       `json:"points,omitempty"`
	Notice string    `json:"notice,omitempty"`
}

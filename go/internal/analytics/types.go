package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is one analytics event awaiting (or past) relay to the message
// bus. Rows are written in the same transaction as the game state they
// describe, so the bus never sees an event for a write that rolled back.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	GameID    uuid.UUID       `json:"game_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// EventPublisher delivers outbox events to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}

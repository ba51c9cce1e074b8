package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// Repository reads and marks outbox rows. Writers insert rows elsewhere,
// inside the transactions that produce the events.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// FetchUnsentOutbox locks and returns up to limit unsent events, oldest
// first. Must run inside the transaction that will mark them sent; SKIP
// LOCKED keeps concurrent relays from double-publishing.
func (r *Repository) FetchUnsentOutbox(ctx context.Context, tx *sql.Tx, limit int32) ([]OutboxEvent, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, game_id, event_type, payload, created_at
		FROM analytics_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var event OutboxEvent
		var payload pqtype.NullRawMessage
		if err := rows.Scan(&event.ID, &event.GameID, &event.EventType, &payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		if payload.Valid {
			event.Payload = json.RawMessage(payload.RawMessage)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return events, nil
}

// MarkOutboxSent stamps the given events as delivered.
func (r *Repository) MarkOutboxSent(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE analytics_outbox
		SET sent_at = NOW()
		WHERE id = ANY($1::uuid[])`,
		pq.Array(idStrings))
	if err != nil {
		return fmt.Errorf("failed to mark outbox events as sent: %w", err)
	}
	return nil
}

// Begin starts a relay transaction.
func (r *Repository) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	return tx, nil
}

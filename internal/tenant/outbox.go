package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// OutboxEvent is one row of the transactional outbox. Rows are written in the
// same transaction as the tenant change they describe and published to the
// broker by the relay job, which then stamps published_at.
type OutboxEvent struct {
	ID           string          `json:"id" db:"id"`
	TenantID     string          `json:"tenant_id" db:"tenant_id"`
	Topic        string          `json:"topic" db:"topic"`
	EventType    string          `json:"event_type" db:"event_type"`
	EventVersion int64           `json:"event_version" db:"event_version"`
	Payload      json.RawMessage `json:"payload" db:"payload"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	PublishedAt  *time.Time      `json:"published_at" db:"published_at"`
}

// GetPendingOutboxEvents returns up to limit unpublished outbox rows, oldest
// first. Ordering by (created_at, event_version) keeps each tenant's events
// in commit order even when several rows share a timestamp.
func (m *Manager) GetPendingOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error) {
	const q = `
		SELECT * FROM admin.tenant_lifecycle_outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC, event_version ASC
		LIMIT $1
	`
	outboxEvents := []OutboxEvent{}
	if err := m.db.SelectContext(ctx, &outboxEvents, q, limit); err != nil {
		return nil, fmt.Errorf("getting pending outbox events: %w", err)
	}
	return outboxEvents, nil
}

// MarkOutboxEventsPublished stamps published_at on the given outbox rows.
func (m *Manager) MarkOutboxEventsPublished(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}

	const q = `
		UPDATE admin.tenant_lifecycle_outbox
		SET published_at = NOW()
		WHERE id = ANY($1)
	`
	if _, err := m.db.ExecContext(ctx, q, pq.Array(eventIDs)); err != nil {
		return fmt.Errorf("marking %d outbox events as published: %w", len(eventIDs), err)
	}
	return nil
}

package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/tug/internal/events"
	"example.com/tug/internal/observability"
)

// FeedHandler materializes the public activity feed from outbox events.
// Private activities are acknowledged without projection; notes only appear
// in the feed when the owner marked them public.
type FeedHandler struct {
	pool *pgxpool.Pool
}

// NewFeedHandler constructs a handler backed by the provided pool.
func NewFeedHandler(pool *pgxpool.Pool) *FeedHandler {
	return &FeedHandler{pool: pool}
}

// Handle applies one decoded event to the feed_items projection.
func (h *FeedHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case "activity.logged":
		return h.handleLogged(ctx, msg)
	case "activity.deleted":
		return h.handleDeleted(ctx, msg)
	default:
		// Unknown event types are committed, not retried.
		return nil
	}
}

func (h *FeedHandler) handleLogged(ctx context.Context, msg Message) error {
	var event events.ActivityLogged
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode activity.logged: %w", err)
	}

	if !event.IsPublic {
		return nil
	}

	notes := ""
	if event.NotesPublic {
		notes = event.Notes
	}

	// ON CONFLICT keeps redelivered events idempotent.
	const stmt = `INSERT INTO feed_items (activity_id, owner_id, title, primary_value, duration_min, occurred_on, notes, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (activity_id) DO NOTHING`

	_, err := h.pool.Exec(ctx, stmt,
		event.ActivityID,
		event.OwnerID,
		event.Title,
		event.PrimaryValue,
		event.DurationMin,
		event.OccurredOn,
		notes,
		event.LoggedAt,
	)
	if err != nil {
		return err
	}
	observability.RecordFeedProjected(event.LoggedAt)
	return nil
}

func (h *FeedHandler) handleDeleted(ctx context.Context, msg Message) error {
	var event events.ActivityDeleted
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode activity.deleted: %w", err)
	}

	_, err := h.pool.Exec(ctx, `DELETE FROM feed_items WHERE activity_id=$1 AND owner_id=$2`,
		event.ActivityID, event.OwnerID)
	return err
}

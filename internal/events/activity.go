// Package events defines the payloads published through the outbox.
package events

import "time"

// ActivityLogged is emitted when a new activity record is accepted. The feed
// worker consumes it to materialize public feed items.
type ActivityLogged struct {
	ActivityID   string    `json:"activity_id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	ValueRefs    []string  `json:"value_refs"`
	PrimaryValue string    `json:"primary_value"`
	DurationMin  int       `json:"duration_min"`
	OccurredOn   time.Time `json:"occurred_on"`
	Notes        string    `json:"notes,omitempty"`
	IsPublic     bool      `json:"is_public"`
	NotesPublic  bool      `json:"notes_public"`
	LoggedAt     time.Time `json:"logged_at"`
}

// ActivityDeleted is emitted when an owner removes a record, so downstream
// projections can drop it.
type ActivityDeleted struct {
	ActivityID string    `json:"activity_id"`
	OwnerID    string    `json:"owner_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Package postgres provides pgx-backed persistence for the tug backend.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/tug/internal/domain"
	"example.com/tug/internal/events"
	"example.com/tug/internal/observability"
)

const activityColumns = `activity_id, owner_id, title, value_refs, legacy_value_ref, duration_min, occurred_on, notes, is_public, notes_public, schema_version, created_at, updated_at`

// ActivityRepository provides Postgres-backed persistence for activity
// records and their outbox events. Every record it returns has passed
// through domain.Normalize, so rows written before multi-value support read
// back with a populated value_refs slice.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// FindByIdempotency checks if an activity already exists for the supplied idempotency key.
func (r *ActivityRepository) FindByIdempotency(ctx context.Context, ownerID, idempotencyKey string) (*domain.ActivityRecord, error) {
	if idempotencyKey == "" {
		return nil, nil
	}

	query := `SELECT ` + activityColumns + ` FROM activities WHERE owner_id=$1 AND idempotency_key=$2`

	row := r.pool.QueryRow(ctx, query, ownerID, idempotencyKey)
	record, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// Create persists the record and writes its outbox event inside one transaction.
func (r *ActivityRepository) Create(ctx context.Context, record domain.ActivityRecord, idempotencyKey string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertActivity = `INSERT INTO activities (activity_id, owner_id, title, value_refs, legacy_value_ref, duration_min, occurred_on, notes, is_public, notes_public, schema_version, idempotency_key, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err = tx.Exec(ctx, insertActivity,
		record.ID,
		record.OwnerID,
		record.Title,
		record.ValueRefs,
		nullIfEmpty(record.LegacyValueRef),
		record.DurationMin,
		record.OccurredOn,
		record.Notes,
		record.IsPublic,
		record.NotesPublic,
		record.SchemaVersion,
		nullIfEmpty(idempotencyKey),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, record.ID, "activity.logged", record.OwnerID, events.ActivityLogged{
		ActivityID:   record.ID,
		OwnerID:      record.OwnerID,
		Title:        record.Title,
		ValueRefs:    record.EffectiveValueRefs(),
		PrimaryValue: record.PrimaryValue(),
		DurationMin:  record.DurationMin,
		OccurredOn:   record.OccurredOn,
		Notes:        record.Notes,
		IsPublic:     record.IsPublic,
		NotesPublic:  record.NotesPublic,
		LoggedAt:     record.CreatedAt,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordActivityPersisted(record.UpdatedAt)
	return nil
}

// Get retrieves one of the owner's activities by ID.
func (r *ActivityRepository) Get(ctx context.Context, ownerID, activityID string) (*domain.ActivityRecord, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE owner_id=$1 AND activity_id=$2`

	row := r.pool.QueryRow(ctx, query, ownerID, activityID)
	record, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// ListByOwner returns the owner's activities ordered by occurrence time.
func (r *ActivityRepository) ListByOwner(ctx context.Context, ownerID string, cursor *domain.Cursor, limit int) ([]domain.ActivityRecord, *domain.Cursor, error) {
	args := []interface{}{ownerID, limit}
	query := `SELECT ` + activityColumns + ` FROM activities WHERE owner_id=$1`

	if cursor != nil {
		query += ` AND (occurred_on, activity_id) < ($3, $4)`
		args = append(args, cursor.OccurredOn, cursor.ID)
	}

	query += ` ORDER BY occurred_on DESC, activity_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.ActivityRecord, 0, limit)
	for rows.Next() {
		record, err := scanActivity(rows)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{OccurredOn: last.OccurredOn, ID: last.ID}
	}

	return results, nextCursor, nil
}

// Update replaces the editable fields of an existing record. It reports
// whether a row belonging to the owner was found.
func (r *ActivityRepository) Update(ctx context.Context, record domain.ActivityRecord) (bool, error) {
	const stmt = `UPDATE activities
        SET title=$3, value_refs=$4, legacy_value_ref=$5, duration_min=$6, occurred_on=$7, notes=$8, is_public=$9, notes_public=$10, updated_at=$11
        WHERE owner_id=$1 AND activity_id=$2`

	tag, err := r.pool.Exec(ctx, stmt,
		record.OwnerID,
		record.ID,
		record.Title,
		record.ValueRefs,
		nullIfEmpty(record.LegacyValueRef),
		record.DurationMin,
		record.OccurredOn,
		record.Notes,
		record.IsPublic,
		record.NotesPublic,
		record.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes one of the owner's records and emits the deletion event in
// the same transaction.
func (r *ActivityRepository) Delete(ctx context.Context, ownerID, activityID string) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM activities WHERE owner_id=$1 AND activity_id=$2`, ownerID, activityID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Rollback(ctx)
	}

	if err = insertOutbox(ctx, tx, activityID, "activity.deleted", ownerID, events.ActivityDeleted{
		ActivityID: activityID,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// SumDurationInWindow totals duration_min over the owner's records sharing a
// title whose occurred_on falls in [from, to).
func (r *ActivityRepository) SumDurationInWindow(ctx context.Context, ownerID, title string, from, to time.Time) (int, error) {
	const query = `SELECT COALESCE(SUM(duration_min), 0)
        FROM activities
        WHERE owner_id=$1 AND title=$2 AND occurred_on >= $3 AND occurred_on < $4`

	var total int
	if err := r.pool.QueryRow(ctx, query, ownerID, title, from, to).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, activityID, eventType, partitionKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", activityID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"activity",
		activityID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*domain.ActivityRecord, error) {
	var record domain.ActivityRecord
	var legacy *string
	if err := row.Scan(
		&record.ID,
		&record.OwnerID,
		&record.Title,
		&record.ValueRefs,
		&legacy,
		&record.DurationMin,
		&record.OccurredOn,
		&record.Notes,
		&record.IsPublic,
		&record.NotesPublic,
		&record.SchemaVersion,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if legacy != nil {
		record.LegacyValueRef = *legacy
	}
	record = domain.Normalize(record)
	return &record, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"activity.logged": {
		Topic:         "activity_events",
		SchemaSubject: "activity_events-value",
	},
	"activity.deleted": {
		Topic:         "activity_events",
		SchemaSubject: "activity_deleted-value",
	},
}

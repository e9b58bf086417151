// Package domain defines the business logic for the tug activity backend.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrIdempotentReplay indicates an existing activity was found for the provided idempotency key.
	ErrIdempotentReplay = errors.New("activity already exists for idempotency key")
	// ErrActivityNotFound is returned when an activity cannot be located for the caller.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrValueNotFound is returned when a value definition cannot be located for the caller.
	ErrValueNotFound = errors.New("value not found")
)

// CurrentSchemaVersion tags newly created activity records.
const CurrentSchemaVersion = 2

// ActivityRepository captures persistence operations for activity records.
// Implementations return records already passed through Normalize.
type ActivityRepository interface {
	FindByIdempotency(ctx context.Context, ownerID, idempotencyKey string) (*ActivityRecord, error)
	Create(ctx context.Context, record ActivityRecord, idempotencyKey string) error
	Get(ctx context.Context, ownerID, activityID string) (*ActivityRecord, error)
	ListByOwner(ctx context.Context, ownerID string, cursor *Cursor, limit int) ([]ActivityRecord, *Cursor, error)
	Update(ctx context.Context, record ActivityRecord) (bool, error)
	Delete(ctx context.Context, ownerID, activityID string) (bool, error)
	SumDurationInWindow(ctx context.Context, ownerID, title string, from, to time.Time) (int, error)
}

// ValueRepository captures persistence operations for value definitions.
type ValueRepository interface {
	Create(ctx context.Context, value Value) error
	Get(ctx context.Context, ownerID, valueID string) (*Value, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Value, error)
	Update(ctx context.Context, value Value) (bool, error)
	Delete(ctx context.Context, ownerID, valueID string) (bool, error)
}

// Cursor models the pagination token for activity listings.
type Cursor struct {
	OccurredOn time.Time
	ID         string
}

// Service orchestrates activity and value workflows.
type Service struct {
	activities ActivityRepository
	values     ValueRepository
	feed       FeedRepository
}

// NewService constructs a Service.
func NewService(activities ActivityRepository, values ValueRepository, feed FeedRepository) *Service {
	return &Service{activities: activities, values: values, feed: feed}
}

// LogActivityInput captures the payload from the API layer.
type LogActivityInput struct {
	OwnerID        string
	Title          string
	ValueRefs      []string
	LegacyValueRef string
	DurationMin    int
	OccurredOn     time.Time
	Notes          string
	IsPublic       bool
	NotesPublic    bool
	IdempotencyKey string
}

// LogActivity validates, normalizes, and persists a new activity record.
// The boolean result reports an idempotent replay of an earlier request.
func (s *Service) LogActivity(ctx context.Context, input LogActivityInput) (*ActivityRecord, bool, error) {
	if existing, err := s.activities.FindByIdempotency(ctx, input.OwnerID, input.IdempotencyKey); err == nil && existing != nil {
		return existing, true, nil
	}

	now := time.Now().UTC()
	record := ActivityRecord{
		ID:             uuid.NewString(),
		OwnerID:        input.OwnerID,
		ValueRefs:      input.ValueRefs,
		LegacyValueRef: input.LegacyValueRef,
		Title:          input.Title,
		DurationMin:    input.DurationMin,
		OccurredOn:     input.OccurredOn,
		Notes:          input.Notes,
		IsPublic:       input.IsPublic,
		NotesPublic:    input.NotesPublic,
		SchemaVersion:  CurrentSchemaVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := ValidateActivity(record); err != nil {
		return nil, false, err
	}
	record = Normalize(record)

	if err := s.activities.Create(ctx, record, input.IdempotencyKey); err != nil {
		return nil, false, err
	}
	return &record, false, nil
}

// GetActivity fetches one of the owner's records by ID.
func (s *Service) GetActivity(ctx context.Context, ownerID, activityID string) (*ActivityRecord, error) {
	record, err := s.activities.Get(ctx, ownerID, activityID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrActivityNotFound
	}
	return record, nil
}

// ListActivities fetches the owner's records with cursor pagination.
func (s *Service) ListActivities(ctx context.Context, ownerID string, cursor *Cursor, limit int) ([]ActivityRecord, *Cursor, error) {
	return s.activities.ListByOwner(ctx, ownerID, cursor, limit)
}

// UpdateActivityInput carries the editable fields of an activity record.
// CreatedAt and OwnerID are immutable after creation.
type UpdateActivityInput struct {
	OwnerID     string
	ActivityID  string
	Title       string
	ValueRefs   []string
	DurationMin int
	OccurredOn  time.Time
	Notes       string
	IsPublic    bool
	NotesPublic bool
}

// UpdateActivity replaces the editable fields of an existing record.
func (s *Service) UpdateActivity(ctx context.Context, input UpdateActivityInput) (*ActivityRecord, error) {
	current, err := s.GetActivity(ctx, input.OwnerID, input.ActivityID)
	if err != nil {
		return nil, err
	}

	record := *current
	record.Title = input.Title
	record.ValueRefs = input.ValueRefs
	record.DurationMin = input.DurationMin
	record.OccurredOn = input.OccurredOn
	record.Notes = input.Notes
	record.IsPublic = input.IsPublic
	record.NotesPublic = input.NotesPublic
	record.UpdatedAt = time.Now().UTC()

	if err := ValidateActivity(record); err != nil {
		return nil, err
	}
	record = Normalize(record)

	found, err := s.activities.Update(ctx, record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrActivityNotFound
	}
	return &record, nil
}

// DeleteActivity removes one of the owner's records.
func (s *Service) DeleteActivity(ctx context.Context, ownerID, activityID string) error {
	found, err := s.activities.Delete(ctx, ownerID, activityID)
	if err != nil {
		return err
	}
	if !found {
		return ErrActivityNotFound
	}
	return nil
}

// DailyTotal aggregates the minutes logged against one activity's identity.
type DailyTotal struct {
	Date         time.Time
	TotalMinutes int
	TotalHours   float64
}

// CalculateDailyTotal sums duration_min over records sharing the given
// record's owner and title within the calendar day of its own OccurredOn.
// A day with no matching records yields a zero total, not an error.
func (s *Service) CalculateDailyTotal(ctx context.Context, ownerID, activityID string) (DailyTotal, error) {
	record, err := s.GetActivity(ctx, ownerID, activityID)
	if err != nil {
		return DailyTotal{}, err
	}

	start, end := DayWindow(record.OccurredOn)
	total, err := s.activities.SumDurationInWindow(ctx, record.OwnerID, record.Title, start, end)
	if err != nil {
		return DailyTotal{}, err
	}

	return DailyTotal{
		Date:         start,
		TotalMinutes: total,
		TotalHours:   ActivityRecord{DurationMin: total}.DurationHours(),
	}, nil
}

// CreateValueInput captures the payload for a new value definition.
type CreateValueInput struct {
	OwnerID     string
	Name        string
	Color       string
	Importance  int
	Description string
}

// CreateValue validates and persists a new value definition.
func (s *Service) CreateValue(ctx context.Context, input CreateValueInput) (*Value, error) {
	now := time.Now().UTC()
	value := Value{
		ID:          uuid.NewString(),
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		Color:       input.Color,
		Importance:  input.Importance,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ValidateValue(value); err != nil {
		return nil, err
	}
	if err := s.values.Create(ctx, value); err != nil {
		return nil, err
	}
	return &value, nil
}

// GetValue fetches one of the owner's value definitions.
func (s *Service) GetValue(ctx context.Context, ownerID, valueID string) (*Value, error) {
	value, err := s.values.Get(ctx, ownerID, valueID)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrValueNotFound
	}
	return value, nil
}

// ListValues fetches all of the owner's value definitions.
func (s *Service) ListValues(ctx context.Context, ownerID string) ([]Value, error) {
	return s.values.ListByOwner(ctx, ownerID)
}

// UpdateValueInput carries the editable fields of a value definition.
type UpdateValueInput struct {
	OwnerID     string
	ValueID     string
	Name        string
	Color       string
	Importance  int
	Description string
}

// UpdateValue replaces the editable fields of an existing value definition.
func (s *Service) UpdateValue(ctx context.Context, input UpdateValueInput) (*Value, error) {
	current, err := s.GetValue(ctx, input.OwnerID, input.ValueID)
	if err != nil {
		return nil, err
	}

	value := *current
	value.Name = input.Name
	value.Color = input.Color
	value.Importance = input.Importance
	value.Description = input.Description
	value.UpdatedAt = time.Now().UTC()

	if err := ValidateValue(value); err != nil {
		return nil, err
	}

	found, err := s.values.Update(ctx, value)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrValueNotFound
	}
	return &value, nil
}

// DeleteValue removes one of the owner's value definitions.
func (s *Service) DeleteValue(ctx context.Context, ownerID, valueID string) error {
	found, err := s.values.Delete(ctx, ownerID, valueID)
	if err != nil {
		return err
	}
	if !found {
		return ErrValueNotFound
	}
	return nil
}

// ListFeed returns the most recent public feed items.
func (s *Service) ListFeed(ctx context.Context, limit int) ([]FeedItem, error) {
	return s.feed.ListRecent(ctx, limit)
}

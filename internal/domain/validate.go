package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Bounds enforced on activity records.
const (
	MaxTitleLen    = 50
	MaxDurationMin = 1440
)

// ValidationError reports a rejected field. The API layer surfaces it as a
// 400 with the field name intact.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidateActivity checks field bounds and the value-association invariant.
// It never mutates the record; callers normalize separately.
func ValidateActivity(r ActivityRecord) error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return invalid("owner_id", "is required")
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return invalid("title", fmt.Sprintf("must be at most %d characters", MaxTitleLen))
	}
	if r.DurationMin <= 0 {
		return invalid("duration_min", "must be greater than zero")
	}
	if r.DurationMin > MaxDurationMin {
		return invalid("duration_min", fmt.Sprintf("must be at most %d", MaxDurationMin))
	}
	if r.OccurredOn.IsZero() {
		return invalid("occurred_on", "is required")
	}
	if len(r.EffectiveValueRefs()) == 0 {
		return invalid("value_refs", "at least one value reference is required")
	}
	for _, ref := range r.ValueRefs {
		if strings.TrimSpace(ref) == "" {
			return invalid("value_refs", "must not contain empty references")
		}
	}
	return nil
}

// ValidateValue checks the bounds for a value definition.
func ValidateValue(v Value) error {
	if strings.TrimSpace(v.OwnerID) == "" {
		return invalid("owner_id", "is required")
	}
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxTitleLen {
		return invalid("name", fmt.Sprintf("must be at most %d characters", MaxTitleLen))
	}
	if v.Importance < 1 || v.Importance > 5 {
		return invalid("importance", "must be between 1 and 5")
	}
	return nil
}

package domain

import (
	"math"
	"time"
)

// ActivityRecord is one logged instance of time spent on a value-aligned
// activity. ValueRefs is the authoritative association going forward;
// LegacyValueRef carries the single-value reference used by records created
// before multi-value support and is reconciled by Normalize.
type ActivityRecord struct {
	ID             string
	OwnerID        string
	ValueRefs      []string
	LegacyValueRef string
	Title          string
	DurationMin    int
	OccurredOn     time.Time
	Notes          string
	IsPublic       bool
	NotesPublic    bool
	SchemaVersion  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Normalize reconciles the legacy single-value field with the plural field so
// downstream consumers can rely on EffectiveValueRefs alone. It runs on the
// write path before persisting and on the read path after scanning rows.
// Applying it twice yields the same record as applying it once.
func Normalize(r ActivityRecord) ActivityRecord {
	switch {
	case len(r.ValueRefs) == 0 && r.LegacyValueRef != "":
		r.ValueRefs = []string{r.LegacyValueRef}
	case len(r.ValueRefs) > 0 && r.LegacyValueRef == "":
		r.LegacyValueRef = r.ValueRefs[0]
	}
	return r
}

// PrimaryValue returns the first effective value reference, or the empty
// string when the record has no association at all.
func (r ActivityRecord) PrimaryValue() string {
	if len(r.ValueRefs) > 0 {
		return r.ValueRefs[0]
	}
	return r.LegacyValueRef
}

// HasMultipleValues reports whether the record counts toward more than one value.
func (r ActivityRecord) HasMultipleValues() bool {
	return len(r.ValueRefs) > 1
}

// EffectiveValueRefs resolves the record's value association. This is the
// single accessor all other components use; nothing outside Normalize should
// read LegacyValueRef directly.
func (r ActivityRecord) EffectiveValueRefs() []string {
	if len(r.ValueRefs) > 0 {
		return r.ValueRefs
	}
	if r.LegacyValueRef != "" {
		return []string{r.LegacyValueRef}
	}
	return nil
}

// DurationHours converts the logged minutes to hours, rounded to two decimals.
func (r ActivityRecord) DurationHours() float64 {
	return math.Round(float64(r.DurationMin)/60*100) / 100
}

// DayWindow computes the [midnight, next midnight) interval containing ts,
// in the timestamp's own location. No timezone conversion is applied.
func DayWindow(ts time.Time) (start, end time.Time) {
	year, month, day := ts.Date()
	start = time.Date(year, month, day, 0, 0, 0, 0, ts.Location())
	return start, start.AddDate(0, 0, 1)
}

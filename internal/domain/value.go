package domain

import "time"

// Value is a user-defined life priority that activities count toward.
type Value struct {
	ID          string
	OwnerID     string
	Name        string
	Color       string
	Importance  int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

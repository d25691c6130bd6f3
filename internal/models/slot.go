package models

import (
	"strings"
	"time"
)

// Slot is a single bookable time/location row in the signup sheet.
// Row is its position in the sheet and is only stable while rows are
// not reordered.
type Slot struct {
	Row       int       `json:"row"`
	Event     string    `json:"event"`
	Location  string    `json:"location"`
	Contact   string    `json:"contact"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Hours     float64   `json:"hours"`
	Completed string    `json:"completed"`

	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	UserID      string     `json:"user_id"`
	ReservedAt  *time.Time `json:"reserved_at,omitempty"`
	Sent24h     bool       `json:"sent_24h"`
	Sent1h      bool       `json:"sent_1h"`
	CalendarUID string     `json:"calendar_uid,omitempty"`
}

// Taken reports whether the slot is reserved. The sheet's source of truth
// is the pair of name cells; whitespace-only values count as blank.
func (s Slot) Taken() bool {
	return strings.TrimSpace(s.FirstName) != "" || strings.TrimSpace(s.LastName) != ""
}

// ReservedBy reports whether email holds this slot's reservation.
// Comparison is case-insensitive; a blank email never owns anything.
func (s Slot) ReservedBy(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(s.Email), email)
}

// SlotFilter captures listing criteria for slots.
type SlotFilter struct {
	UpcomingOnly bool
	IncludeTaken bool
	Search       string
	OwnerEmail   string
	Now          time.Time
}

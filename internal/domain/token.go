package domain

import (
	"fmt"
	"time"
)

// Shift identifies one of the two daily service windows.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftEvening Shift = "evening"
)

// Valid reports whether the shift is a known value.
func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftEvening
}

// TokenStatus enumerates lifecycle states for queue tokens.
type TokenStatus string

const (
	TokenStatusPending   TokenStatus = "pending"
	TokenStatusServing   TokenStatus = "serving"
	TokenStatusCompleted TokenStatus = "completed"
	TokenStatusMissed    TokenStatus = "missed"
)

// Terminal reports whether no further transitions may leave the status.
func (s TokenStatus) Terminal() bool {
	return s == TokenStatusCompleted || s == TokenStatusMissed
}

// Token is one ticket drawn by one patient for one shift on one day.
// SequenceNumber is unique and dense within the (Day, Shift, IsEmergency)
// partition; the display string is derived, never stored.
type Token struct {
	ID             string
	PatientID      string
	Shift          Shift
	Day            time.Time
	IsEmergency    bool
	SequenceNumber int
	Status         TokenStatus
	CreatedAt      time.Time
	ServedAt       *time.Time
	MissedAt       *time.Time
}

// DisplayNumber renders the user-facing token number: plain digits for
// regular tokens, "E-<n>" for emergency tokens.
func (t *Token) DisplayNumber() string {
	if t.IsEmergency {
		return fmt.Sprintf("E-%d", t.SequenceNumber)
	}
	return fmt.Sprintf("%d", t.SequenceNumber)
}

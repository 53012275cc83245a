package domain

import "time"

// Default capacities mirror the clinic's historical limits; overridable via
// configuration and mutable by the doctor at runtime.
const (
	DefaultMaxTokens = 30
)

// QueueConfig is the process-wide queue configuration singleton: capacity
// limits per shift, the advisory pause flag, and a cached pointer to the
// token currently being served. CurrentTokenID mirrors the ledger's serving
// token; the ledger stays the source of truth.
type QueueConfig struct {
	MaxTokensMorning int
	MaxTokensEvening int
	IsPaused         bool
	CurrentTokenID   *string
	LastUpdated      time.Time
}

// MaxTokens returns the regular-token capacity for the given shift.
func (c *QueueConfig) MaxTokens(shift Shift) int {
	if shift == ShiftEvening {
		return c.MaxTokensEvening
	}
	return c.MaxTokensMorning
}

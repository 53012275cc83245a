package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Conflict sentinels surfaced when a unique index rejects a write. Services
// treat these as optimistic-concurrency signals: re-read and retry, never
// shown to callers directly.
var (
	// ErrSequenceConflict: another writer claimed the candidate sequence
	// number in the same (day, shift, is_emergency) partition.
	ErrSequenceConflict = errors.New("sequence number already allocated")

	// ErrPatientHasToken: the patient already holds a token for the
	// (day, shift) pair.
	ErrPatientHasToken = errors.New("patient already holds a token for this shift")

	// ErrEmergencyExists: the patient already holds an emergency token today.
	ErrEmergencyExists = errors.New("patient already holds an emergency token today")

	// ErrServingExists: another token for the (day, shift) is already serving.
	ErrServingExists = errors.New("another token is already serving")

	// ErrStatusConflict: a guarded status update matched no row because the
	// token's status changed underneath the caller.
	ErrStatusConflict = errors.New("token status changed concurrently")

	// ErrEmailTaken: a user with the same email already exists.
	ErrEmailTaken = errors.New("email already registered")
)

const uniqueViolation = "23505"

// constraintConflict maps a Postgres unique violation to the sentinel for
// the constraint that fired, or nil when err is not a unique violation.
func constraintConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case "tokens_partition_sequence_key":
		return ErrSequenceConflict
	case "tokens_patient_day_shift_key":
		return ErrPatientHasToken
	case "tokens_patient_emergency_day_key":
		return ErrEmergencyExists
	case "tokens_single_serving_key":
		return ErrServingExists
	case "users_email_key":
		return ErrEmailTaken
	}
	return nil
}

package domain

import "time"

// Role distinguishes the two callers the queue knows about.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User is the domain model for registered patients and the doctor operator.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxUserIDLen = 64
)

var (
	ErrUserIDTooLong = errors.New("user id too long")
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUnknownRole   = errors.New("unknown role")
)

type UserID string

// Role is the part a user plays in a consultation.
type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// ParseRole accepts the wire spellings used by clients ("doctor" is an alias of clinician).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clinician", "doctor":
		return RoleClinician, nil
	case "patient":
		return RolePatient, nil
	}
	return "", ErrUnknownRole
}

// Label is the speaker name used in rendered transcripts.
func (r Role) Label() string {
	switch r {
	case RoleClinician:
		return "Doctor"
	case RolePatient:
		return "Patient"
	}
	return "Unknown"
}

type User struct {
	ID   UserID `json:"id"`
	Role Role   `json:"role"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id string, role Role) (*User, error) {
	if len(id) == 0 {
		return nil, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if role != RoleClinician && role != RolePatient {
		return nil, ErrUnknownRole
	}
	return &User{ID: UserID(id), Role: role}, nil
}

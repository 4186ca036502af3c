package domain

import "time"

type ConsentStatus string

const (
	ConsentPending ConsentStatus = "pending"
	ConsentGranted ConsentStatus = "granted"
	ConsentDenied  ConsentStatus = "denied"
)

const DefaultConsentText = "I consent to the recording and transcription of this medical interview for documentation purposes."

// ConsentDecision is an archived, already decided consent lifecycle.
type ConsentDecision struct {
	Status      ConsentStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
	DecidedAt   time.Time     `json:"decided_at"`
}

type ConsentRecord struct {
	AppointmentID AppointmentID     `json:"appointment_id"`
	Status        ConsentStatus     `json:"status"`
	ConsentText   string            `json:"consent_text"`
	CreatedAt     time.Time         `json:"created_at"`
	RequestedAt   time.Time         `json:"requested_at"`
	GrantedAt     *time.Time        `json:"granted_at,omitempty"`
	DecidedAt     *time.Time        `json:"decided_at,omitempty"`
	History       []ConsentDecision `json:"history,omitempty"`
}

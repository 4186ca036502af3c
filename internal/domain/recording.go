package domain

import "time"

type RecordingStatus string

const (
	RecordingIdle    RecordingStatus = "idle"
	RecordingActive  RecordingStatus = "recording"
	RecordingStopped RecordingStatus = "stopped"
)

type RecordingSession struct {
	AppointmentID AppointmentID   `json:"appointment_id"`
	Status        RecordingStatus `json:"status"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	StoppedAt     *time.Time      `json:"stopped_at,omitempty"`
	StartedBy     UserID          `json:"started_by,omitempty"`
	Segments      int             `json:"segments"`
}

// Duration is zero until the session has been stopped.
func (s RecordingSession) Duration() time.Duration {
	if s.StartedAt == nil || s.StoppedAt == nil {
		return 0
	}
	return s.StoppedAt.Sub(*s.StartedAt)
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

type TranscriptionStatus string

const (
	TranscriptionIdle   TranscriptionStatus = "idle"
	TranscriptionActive TranscriptionStatus = "active"
	TranscriptionEnded  TranscriptionStatus = "ended"
)

// TranscriptChunk is one speaker turn. Seq starts at 1 and is gap-free per session.
type TranscriptChunk struct {
	Seq     uint64    `json:"seq"`
	Speaker Role      `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

type TranscriptionSession struct {
	AppointmentID AppointmentID       `json:"appointment_id"`
	Status        TranscriptionStatus `json:"status"`
	StartedAt     *time.Time          `json:"started_at,omitempty"`
	EndedAt       *time.Time          `json:"ended_at,omitempty"`
	Chunks        []TranscriptChunk   `json:"chunks"`
}

// RenderTranscript formats chunks as "[HH:MM:SS] Speaker: text" lines.
func RenderTranscript(chunks []TranscriptChunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s: %s", c.At.UTC().Format("15:04:05"), c.Speaker.Label(), c.Text)
	}
	return b.String()
}

// Summary is produced by an external summarization engine.
type Summary struct {
	AppointmentID AppointmentID `json:"appointment_id"`
	Text          string        `json:"summary"`
	KeyPoints     []string      `json:"key_points"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

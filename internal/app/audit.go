package app

import (
	"context"
	"time"

	"github.com/dkeye/Consult/internal/domain"
)

type AuditAction string

const (
	AuditJoinInterview      AuditAction = "join_interview"
	AuditLeaveInterview     AuditAction = "leave_interview"
	AuditRequestConsent     AuditAction = "request_consent"
	AuditGrantConsent       AuditAction = "grant_consent"
	AuditDenyConsent        AuditAction = "deny_consent"
	AuditRenewConsent       AuditAction = "renew_consent"
	AuditStartRecording     AuditAction = "start_recording"
	AuditStopRecording      AuditAction = "stop_recording"
	AuditStartTranscription AuditAction = "start_transcription"
	AuditEndTranscription   AuditAction = "end_transcription"
	AuditViewTranscript     AuditAction = "view_transcript"
	AuditGenerateSummary    AuditAction = "generate_summary"
	AuditRoomTeardown       AuditAction = "room_teardown"
)

// AuditEntry is an immutable record of who did what to which appointment.
type AuditEntry struct {
	ID           string        `json:"id"`
	UserID       domain.UserID `json:"user_id"`
	Action       AuditAction   `json:"action"`
	ResourceType string        `json:"resource_type"`
	ResourceID   string        `json:"resource_id,omitempty"`
	Details      string        `json:"details,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type AuditSink interface {
	Record(ctx context.Context, e AuditEntry) error
}

// AuditLog is an AuditSink that can be queried.
type AuditLog interface {
	AuditSink
	List(ctx context.Context, resourceID string, limit int) ([]AuditEntry, error)
}

// TranscriptArchive keeps ended transcripts beyond the live room.
type TranscriptArchive interface {
	ArchiveTranscript(ctx context.Context, id domain.AppointmentID, chunks []domain.TranscriptChunk) error
}

package core

import "errors"

// Kind classifies coordinator failures. Every failure is scoped to one room
// or one appointment; none is fatal to the process.
type Kind string

const (
	KindCapacity     Kind = "capacity"
	KindPrecondition Kind = "precondition"
	KindProtocol     Kind = "protocol"
	KindPermission   Kind = "permission"
	KindNotFound     Kind = "not_found"
)

// CoordError is a sentinel carrying its wire code and taxonomy class.
type CoordError struct {
	Code string
	kind Kind
	msg  string
}

func (e *CoordError) Error() string { return e.msg }

// ErrorKind returns the taxonomy class of the error.
func (e *CoordError) ErrorKind() Kind { return e.kind }

func newErr(kind Kind, code, msg string) *CoordError {
	return &CoordError{Code: code, kind: kind, msg: msg}
}

var (
	ErrRoomFull             = newErr(KindCapacity, "room_full", "room already has two participants")
	ErrDuplicateParticipant = newErr(KindCapacity, "duplicate_participant", "user already registered in room")
	ErrRoleTaken            = newErr(KindCapacity, "role_taken", "role already present in room")

	ErrConsentRequired  = newErr(KindPrecondition, "consent_required", "recording requires granted patient consent")
	ErrNoPendingRequest = newErr(KindPrecondition, "no_pending_request", "no consent request exists")
	ErrAlreadyDecided   = newErr(KindPrecondition, "already_decided", "consent already decided")
	ErrAlreadyRecording = newErr(KindPrecondition, "already_recording", "recording already in progress")
	ErrAlreadyActive    = newErr(KindPrecondition, "already_active", "transcription already active")
	ErrSessionNotActive = newErr(KindPrecondition, "session_not_active", "transcription session not active")
	ErrSessionEnded     = newErr(KindPrecondition, "session_ended", "transcription session already ended")
	ErrTranscriptShort  = newErr(KindPrecondition, "transcript_too_short", "transcript is too short or empty to summarize")
	ErrRoomClosed       = newErr(KindPrecondition, "room_closed", "room was torn down")

	ErrInvalidMessage    = newErr(KindProtocol, "invalid_message", "invalid message")
	ErrNotInRoom         = newErr(KindProtocol, "not_in_room", "sender or target is not a room member")
	ErrNotOfferInitiator = newErr(KindProtocol, "not_offer_initiator", "only the clinician creates offers")
	ErrRateLimited       = newErr(KindProtocol, "rate_limited", "too many messages")

	ErrRoleNotPermitted = newErr(KindPermission, "role_not_permitted", "operation not permitted for this role")

	ErrNotFound              = newErr(KindNotFound, "not_found", "record not found")
	ErrCapabilityUnavailable = newErr(KindNotFound, "capability_unavailable", "external engine not configured")
)

// KindOf reports the taxonomy class of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var ce *CoordError
	if errors.As(err, &ce) {
		return ce.kind
	}
	return ""
}

// CodeOf reports the wire code of err, or "internal".
func CodeOf(err error) string {
	var ce *CoordError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return "internal"
}

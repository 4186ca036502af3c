package core

import "github.com/dkeye/Consult/internal/domain"

// SessionID identifies one live transport connection. A user that reconnects gets a new one.
type SessionID string

// ParticipantSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type ParticipantSession interface {
	ID() SessionID
	Meta() *domain.Member
	Signal() SignalConnection
}

package core

import (
	"github.com/dkeye/Consult/internal/domain"
)

// ParticipantDTO is a read-only view for APIs (no transport fields).
type ParticipantDTO struct {
	ID   domain.UserID `json:"user_id"`
	Role domain.Role   `json:"role"`
}

// RoomService is the core-facing API of a two-party room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int

	// Join registers ps. It fails with ErrRoomFull, ErrDuplicateParticipant,
	// ErrRoleTaken or ErrRoomClosed (the room was torn down concurrently).
	Join(ps ParticipantSession) ([]ParticipantDTO, error)
	// Leave removes the entry for user only when it is still bound to sid.
	// empty reports whether the room became empty and is now closed.
	Leave(user domain.UserID, sid SessionID) (removed ParticipantSession, empty bool)
	// Evict removes the entry for user regardless of its session.
	Evict(user domain.UserID) (ParticipantSession, bool)

	Member(user domain.UserID) (ParticipantSession, bool)
	// Peers returns every member except user.
	Peers(user domain.UserID) []ParticipantSession
	Members() []ParticipantSession
	// Snapshot lists members in join order.
	Snapshot() []ParticipantDTO
}

type RoomInfo struct {
	ID           domain.RoomID    `json:"room_id"`
	Participants []ParticipantDTO `json:"participants"`
	Count        int              `json:"count"`
}

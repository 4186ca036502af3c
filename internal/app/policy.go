package app

import "github.com/dkeye/Consult/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropMessage
	KickMember
)

// Policy decides what happens to a participant whose outbound buffer is full.
type Policy interface {
	OnBackPressure(room core.RoomInfo, member core.ParticipantSession) BackpressureAction
}

// SimplePolicy kicks slow members; their client reconnects and renegotiates.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomInfo, member core.ParticipantSession) BackpressureAction {
	return KickMember
}

// DropPolicy keeps slow members and loses the message.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.RoomInfo, core.ParticipantSession) BackpressureAction {
	return DropMessage
}

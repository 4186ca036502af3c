package domain

import "time"

// RoomID is an opaque token; the signaling room of an appointment uses the appointment id.
type RoomID string

// AppointmentID is the correlation key supplied by the scheduling system.
type AppointmentID string

// MaxParticipants is the two-party room invariant.
const MaxParticipants = 2

type Room struct {
	ID        RoomID
	CreatedAt time.Time
}

// RoomOf maps an appointment to its signaling room.
func RoomOf(id AppointmentID) RoomID { return RoomID(id) }

// AppointmentOf maps a signaling room back to its appointment.
func AppointmentOf(id RoomID) AppointmentID { return AppointmentID(id) }

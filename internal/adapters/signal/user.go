package signal

import (
	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
)

// peer is the state of one signaling connection. Only its read loop touches it.
type peer struct {
	sid    core.SessionID
	user   *domain.User
	room   domain.RoomID
	conn   *WsSignalConn
	sess   core.ParticipantSession
	joined bool
}

func (p *peer) appointment() domain.AppointmentID {
	return domain.AppointmentOf(p.room)
}

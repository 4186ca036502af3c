package core

import "github.com/dkeye/Consult/internal/domain"

// participantSession implements ParticipantSession by pairing meta + transport.
type participantSession struct {
	sid  SessionID
	meta *domain.Member
	conn SignalConnection
}

func NewParticipantSession(sid SessionID, meta *domain.Member, conn SignalConnection) ParticipantSession {
	return &participantSession{sid: sid, meta: meta, conn: conn}
}

func (p *participantSession) ID() SessionID            { return p.sid }
func (p *participantSession) Meta() *domain.Member     { return p.meta }
func (p *participantSession) Signal() SignalConnection { return p.conn }

// UserOf is a nil-safe shortcut used by log statements.
func UserOf(ps ParticipantSession) domain.UserID {
	if ps == nil || ps.Meta() == nil || ps.Meta().User == nil {
		return ""
	}
	return ps.Meta().User.ID
}

package signal

import (
	"context"

	"github.com/dkeye/Consult/internal/core"
	"github.com/rs/zerolog/log"
)

// handleJoin registers the connection in its room. The orchestrator answers
// with room-info and announces the newcomer.
func (ctl *SignalWSController) handleJoin(ctx context.Context, p *peer, reconnect bool) {
	if p.joined {
		ctl.sendError(p.conn, core.ErrDuplicateParticipant)
		return
	}
	if _, err := ctl.Orch.Join(ctx, p.room, p.sess, reconnect); err != nil {
		log.Info().Str("module", "signal").Str("sid", string(p.sid)).Str("room", string(p.room)).Err(err).Msg("join refused")
		ctl.sendError(p.conn, err)
		return
	}
	p.joined = true
	log.Info().Str("module", "signal").Str("sid", string(p.sid)).Str("room", string(p.room)).Bool("reconnect", reconnect).Msg("join")
}

// handleLeave leaves the room but keeps the connection; a later join re-enters.
func (ctl *SignalWSController) handleLeave(ctx context.Context, p *peer) {
	if p.joined {
		ctl.Orch.Leave(ctx, p.room, p.user.ID, p.sid)
		p.joined = false
	}
	log.Info().Str("module", "signal").Str("sid", string(p.sid)).Msg("leave")
	ctl.sendJSON(p.conn, core.Message{Type: core.MsgLeft, RoomID: p.room})
}

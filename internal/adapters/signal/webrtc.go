package signal

import (
	"github.com/dkeye/Consult/internal/core"
	"github.com/rs/zerolog/log"
)

// handleNegotiation relays offer/answer/ice-candidate to the target peer.
// The server never terminates media; it only forwards negotiation blobs.
func (ctl *SignalWSController) handleNegotiation(p *peer, msg core.Message) {
	if !p.joined {
		ctl.sendError(p.conn, core.ErrNotInRoom)
		return
	}
	if err := ctl.Orch.Relay(p.room, p.sess, msg); err != nil {
		log.Info().Str("module", "signal").Str("sid", string(p.sid)).Str("type", string(msg.Type)).Err(err).Msg("relay refused")
		ctl.sendError(p.conn, err)
	}
}

package signal

import (
	"context"

	"github.com/dkeye/Consult/internal/core"
)

func (ctl *SignalWSController) handlePing(p *peer) {
	ctl.sendJSON(p.conn, core.Message{Type: core.MsgPong})
}

func (ctl *SignalWSController) handleChat(p *peer, msg core.Message) {
	if !p.joined {
		ctl.sendError(p.conn, core.ErrNotInRoom)
		return
	}
	if err := ctl.Orch.Chat(p.room, p.sess, msg.Text); err != nil {
		ctl.sendError(p.conn, err)
	}
}

func (ctl *SignalWSController) handleConsentRequest(ctx context.Context, p *peer) {
	if !p.joined {
		ctl.sendError(p.conn, core.ErrNotInRoom)
		return
	}
	if _, err := ctl.Orch.RequestConsent(ctx, p.appointment(), p.user); err != nil {
		ctl.sendError(p.conn, err)
	}
}

func (ctl *SignalWSController) handleConsentResponse(ctx context.Context, p *peer, msg core.Message) {
	if !p.joined {
		ctl.sendError(p.conn, core.ErrNotInRoom)
		return
	}
	if msg.Granted == nil {
		ctl.sendError(p.conn, core.ErrInvalidMessage)
		return
	}
	if _, err := ctl.Orch.RespondConsent(ctx, p.appointment(), p.user, *msg.Granted); err != nil {
		ctl.sendError(p.conn, err)
	}
}

// handleRecording lets the clinician drive recording from the call UI.
func (ctl *SignalWSController) handleRecording(ctx context.Context, p *peer, msg core.Message) {
	if !p.joined {
		ctl.sendError(p.conn, core.ErrNotInRoom)
		return
	}
	var err error
	if msg.Type == core.MsgRecordingStarted {
		_, err = ctl.Orch.StartRecording(ctx, p.appointment(), p.user)
	} else {
		_, err = ctl.Orch.StopRecording(ctx, p.appointment(), p.user)
	}
	if err != nil {
		ctl.sendError(p.conn, err)
	}
}

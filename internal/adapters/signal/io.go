package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Consult/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

// readPump owns the peer. Whatever ends it, the participant leaves the room;
// losing the transport is an ordinary user-left.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, p *peer, reconnect bool) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(p.sid)).Msg("readPump closing")
		if p.joined {
			ctl.Orch.Leave(ctx, p.room, p.user.ID, p.sid)
		}
		ctl.forgetRate(p)
		cancel()
		p.conn.Close()
	}()

	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	p.conn.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = p.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.conn.SetPongHandler(func(string) error {
		return p.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctl.handleJoin(ctx, p, reconnect)

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(p.sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := p.conn.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(p.sid)).Msg("readPump read error")
				}
				return
			}
			_ = p.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
			ctl.handleSignal(ctx, p, data)
		}
	}
}

// forgetRate drops the rate window of p's user unless a newer connection of
// the same user is still registered in the room.
func (ctl *SignalWSController) forgetRate(p *peer) {
	if ctl.Limiter == nil {
		return
	}
	if cur, ok := ctl.Orch.Registry.Member(p.room, p.user.ID); ok && cur.ID() != p.sid {
		return
	}
	ctl.Limiter.Forget(p.user.ID)
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, p *peer, data []byte) {
	if len(data) > ctl.Cfg.MaxMessageBytes {
		log.Warn().Str("module", "signal").Str("sid", string(p.sid)).Int("bytes", len(data)).Msg("oversized message")
		ctl.sendError(p.conn, core.ErrInvalidMessage)
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(p.user.ID) {
		ctl.sendError(p.conn, core.ErrRateLimited)
		return
	}
	var msg core.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(p.conn, core.ErrInvalidMessage)
		return
	}

	switch msg.Type {
	case core.MsgJoin:
		ctl.handleJoin(ctx, p, msg.Reconnect)
	case core.MsgLeave:
		ctl.handleLeave(ctx, p)
	case core.MsgPing:
		ctl.handlePing(p)
	case core.MsgOffer, core.MsgAnswer, core.MsgICECandidate:
		ctl.handleNegotiation(p, msg)
	case core.MsgConsentRequested:
		ctl.handleConsentRequest(ctx, p)
	case core.MsgConsentResponse:
		ctl.handleConsentResponse(ctx, p, msg)
	case core.MsgRecordingStarted, core.MsgRecordingStopped:
		ctl.handleRecording(ctx, p, msg)
	case core.MsgChat:
		ctl.handleChat(p, msg)
	default:
		log.Warn().Str("module", "signal").Str("type", string(msg.Type)).Msg("unknown signal")
		ctl.sendError(p.conn, core.ErrInvalidMessage)
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// sendError answers the offending client only; the connection stays open.
func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	ctl.sendJSON(c, core.ErrorMessage(err))
}

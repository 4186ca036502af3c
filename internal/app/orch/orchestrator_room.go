package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// systemUser marks audit entries written by the coordinator itself.
const systemUser domain.UserID = "system"

// Join registers ps in room and announces it. With reconnect set, a stale
// entry of the same user is evicted first and its connection closed.
func (o *Orchestrator) Join(ctx context.Context, room domain.RoomID, ps core.ParticipantSession, reconnect bool) ([]core.ParticipantDTO, error) {
	user := ps.Meta().User
	appt := domain.AppointmentOf(room)

	o.lock(appt)
	var stale core.ParticipantSession
	if reconnect {
		if cur, ok := o.Registry.Member(room, user.ID); ok && cur.ID() != ps.ID() {
			stale, _ = o.Registry.Evict(room, user.ID)
		}
	}
	snap, err := o.Registry.Join(room, ps)
	o.unlock(appt)

	if stale != nil {
		log.Info().Str("module", "orch").Str("room", string(room)).Str("user", string(user.ID)).Str("stale_sid", string(stale.ID())).Msg("stale entry evicted")
		stale.Signal().Close()
	}
	if err != nil {
		return nil, err
	}

	ids := make([]domain.UserID, 0, len(snap))
	for _, p := range snap {
		ids = append(ids, p.ID)
	}
	o.send(room, ps, core.Message{
		Type:         core.MsgRoomInfo,
		RoomID:       room,
		YourID:       user.ID,
		Participants: ids,
		Initiator:    core.BoolPtr(user.Role == domain.RoleClinician && len(snap) > 1),
	})
	for _, peer := range o.Registry.Peers(room, user.ID) {
		if stale != nil {
			o.send(room, peer, core.Message{Type: core.MsgUserLeft, UserID: user.ID})
		}
		o.send(room, peer, core.Message{
			Type:      core.MsgUserJoined,
			UserID:    user.ID,
			Role:      user.Role,
			Initiator: core.BoolPtr(peer.Meta().User.Role == domain.RoleClinician),
		})
	}
	o.audit(ctx, user.ID, app.AuditJoinInterview, "interview", appt, "")
	return snap, nil
}

// Leave removes user's entry if it is still bound to sid and notifies the
// peer. It must not be called with the room lock held: the last leave runs
// the teardown, which takes it.
func (o *Orchestrator) Leave(ctx context.Context, room domain.RoomID, user domain.UserID, sid core.SessionID) bool {
	if _, ok := o.Registry.Leave(room, user, sid); !ok {
		return false
	}
	o.broadcast(room, user, core.Message{Type: core.MsgUserLeft, UserID: user})
	o.audit(ctx, user, app.AuditLeaveInterview, "interview", domain.AppointmentOf(room), "")
	return true
}

// Participants lists the room members in join order.
func (o *Orchestrator) Participants(room domain.RoomID) []core.ParticipantDTO {
	return o.Registry.Snapshot(room)
}

// onTeardown releases live state of an emptied room. Consent records and
// transcripts stay.
func (o *Orchestrator) onTeardown(room domain.RoomID) {
	appt := domain.AppointmentOf(room)
	o.lock(appt)
	if o.Registry.MemberCount(room) > 0 {
		o.unlock(appt)
		return
	}
	rec, stopped := o.Recordings.Stop(appt)
	var ended *domain.TranscriptionSession
	if o.Transcripts.Active(appt) {
		if s, err := o.Transcripts.End(appt); err == nil {
			ended = &s
		}
	}
	o.unlock(appt)

	ctx := context.Background()
	if stopped {
		o.audit(ctx, systemUser, app.AuditStopRecording, "recording", appt, fmt.Sprintf("duration=%s", rec.Duration()))
	}
	if ended != nil {
		o.archive(ctx, appt, ended.Chunks)
		o.audit(ctx, systemUser, app.AuditEndTranscription, "transcript", appt, fmt.Sprintf("chunks=%d", len(ended.Chunks)))
	}
	o.audit(ctx, systemUser, app.AuditRoomTeardown, "interview", appt, "")
	log.Info().Str("module", "orch").Str("room", string(room)).Bool("recording_stopped", stopped).Bool("transcript_ended", ended != nil).Msg("room state released")
}

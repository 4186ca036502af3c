package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the session coordinator. All state transitions of one
// room/appointment run under one keyed lock; frames to peers are sent only
// after that lock is released.
type Orchestrator struct {
	Registry    *app.Registry
	Consent     *app.ConsentGate
	Recordings  *app.RecordingCoordinator
	Transcripts *app.TranscriptAggregator
	Summaries   *app.SummaryService
	Transcriber core.Transcriber
	Policy      app.Policy
	Audit       app.AuditSink
	Archive     app.TranscriptArchive

	locks app.KeyedMutex
}

// New wires the in-memory components. Either engine may be nil; the
// operations that need it then fail with ErrCapabilityUnavailable.
func New(summarizer core.Summarizer, transcriber core.Transcriber) *Orchestrator {
	consent := app.NewConsentGate()
	transcripts := app.NewTranscriptAggregator(consent)
	o := &Orchestrator{
		Registry:    app.NewRegistry(),
		Consent:     consent,
		Recordings:  app.NewRecordingCoordinator(consent),
		Transcripts: transcripts,
		Summaries:   app.NewSummaryService(summarizer, transcripts),
		Transcriber: transcriber,
		Policy:      app.SimplePolicy{},
	}
	o.Registry.OnTeardown(o.onTeardown)
	return o
}

func (o *Orchestrator) lock(id domain.AppointmentID)   { o.locks.Lock(string(id)) }
func (o *Orchestrator) unlock(id domain.AppointmentID) { o.locks.Unlock(string(id)) }

// send never blocks. A full buffer is handed to the Policy; a closed
// connection is ignored, its read loop reports the leave.
func (o *Orchestrator) send(room domain.RoomID, to core.ParticipantSession, msg core.Message) {
	frame, err := msg.Encode()
	if err != nil {
		log.Error().Str("module", "orch").Str("type", string(msg.Type)).Err(err).Msg("encode failed")
		return
	}
	err = to.Signal().TrySend(frame)
	if err == nil || errors.Is(err, core.ErrConnClosed) || o.Policy == nil {
		return
	}
	snap := o.Registry.Snapshot(room)
	info := core.RoomInfo{ID: room, Participants: snap, Count: len(snap)}
	switch o.Policy.OnBackPressure(info, to) {
	case app.KickMember:
		log.Warn().Str("module", "orch").Str("room", string(room)).Str("user", string(core.UserOf(to))).Msg("slow peer kicked")
		to.Signal().Close()
	case app.DropMessage, app.NoAction:
		log.Debug().Str("module", "orch").Str("room", string(room)).Str("type", string(msg.Type)).Msg("message dropped")
	}
}

// broadcast sends msg to every member except the given user ("" for all).
func (o *Orchestrator) broadcast(room domain.RoomID, except domain.UserID, msg core.Message) {
	for _, ps := range o.Registry.Peers(room, except) {
		o.send(room, ps, msg)
	}
}

func (o *Orchestrator) audit(ctx context.Context, user domain.UserID, action app.AuditAction, resource string, id domain.AppointmentID, details string) {
	if o.Audit == nil {
		return
	}
	entry := app.AuditEntry{
		UserID:       user,
		Action:       action,
		ResourceType: resource,
		ResourceID:   string(id),
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	}
	if err := o.Audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn().Str("module", "orch").Str("action", string(action)).Err(err).Msg("audit write failed")
	}
}

func (o *Orchestrator) archive(ctx context.Context, id domain.AppointmentID, chunks []domain.TranscriptChunk) {
	if o.Archive == nil {
		return
	}
	if err := o.Archive.ArchiveTranscript(context.WithoutCancel(ctx), id, chunks); err != nil {
		log.Warn().Str("module", "orch").Str("appointment", string(id)).Err(err).Msg("transcript archive failed")
	}
}

package orch

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/Consult/internal/app"
	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
)

func requireRole(actor *domain.User, role domain.Role) error {
	if actor == nil || actor.Role != role {
		return core.ErrRoleNotPermitted
	}
	return nil
}

// RequestConsent opens (or returns) the consent record and prompts the
// patient while it is pending. Clinician only.
func (o *Orchestrator) RequestConsent(ctx context.Context, id domain.AppointmentID, actor *domain.User) (domain.ConsentRecord, error) {
	if err := requireRole(actor, domain.RoleClinician); err != nil {
		return domain.ConsentRecord{}, err
	}
	o.lock(id)
	rec, created := o.Consent.Request(id)
	o.unlock(id)

	if rec.Status == domain.ConsentPending {
		o.broadcast(domain.RoomOf(id), actor.ID, core.Message{Type: core.MsgConsentRequested, FromID: actor.ID})
	}
	if created {
		o.audit(ctx, actor.ID, app.AuditRequestConsent, "consent", id, "")
	}
	return rec, nil
}

// RespondConsent applies the patient's decision and tells the clinician.
func (o *Orchestrator) RespondConsent(ctx context.Context, id domain.AppointmentID, actor *domain.User, granted bool) (domain.ConsentRecord, error) {
	if err := requireRole(actor, domain.RolePatient); err != nil {
		return domain.ConsentRecord{}, err
	}
	o.lock(id)
	rec, err := o.Consent.Respond(id, granted)
	o.unlock(id)
	if err != nil {
		return rec, err
	}

	o.broadcast(domain.RoomOf(id), actor.ID, core.Message{
		Type:    core.MsgConsentResponse,
		FromID:  actor.ID,
		Granted: core.BoolPtr(granted),
	})
	action := app.AuditDenyConsent
	if granted {
		action = app.AuditGrantConsent
	}
	o.audit(ctx, actor.ID, action, "consent", id, "")
	return rec, nil
}

// RenewConsent reopens a denied consent so the patient can be asked again.
func (o *Orchestrator) RenewConsent(ctx context.Context, id domain.AppointmentID, actor *domain.User) (domain.ConsentRecord, error) {
	if err := requireRole(actor, domain.RoleClinician); err != nil {
		return domain.ConsentRecord{}, err
	}
	o.lock(id)
	before, _ := o.Consent.Get(id)
	rec, err := o.Consent.Renew(id)
	o.unlock(id)
	if err != nil {
		return rec, err
	}

	o.broadcast(domain.RoomOf(id), actor.ID, core.Message{Type: core.MsgConsentRequested, FromID: actor.ID})
	if len(rec.History) > len(before.History) {
		o.audit(ctx, actor.ID, app.AuditRenewConsent, "consent", id, "")
	}
	return rec, nil
}

func (o *Orchestrator) ConsentRecord(id domain.AppointmentID) (domain.ConsentRecord, error) {
	rec, ok := o.Consent.Get(id)
	if !ok {
		return rec, core.ErrNotFound
	}
	return rec, nil
}

// StartRecording requires granted consent; both members see recording-started.
func (o *Orchestrator) StartRecording(ctx context.Context, id domain.AppointmentID, actor *domain.User) (domain.RecordingSession, error) {
	if err := requireRole(actor, domain.RoleClinician); err != nil {
		return domain.RecordingSession{}, err
	}
	o.lock(id)
	rec, err := o.Recordings.Start(id, actor.ID)
	o.unlock(id)
	if err != nil {
		return rec, err
	}

	o.broadcast(domain.RoomOf(id), "", core.Message{Type: core.MsgRecordingStarted, FromID: actor.ID})
	o.audit(ctx, actor.ID, app.AuditStartRecording, "recording", id, fmt.Sprintf("segment=%d", rec.Segments))
	return rec, nil
}

// StopRecording is a no-op on an idle or stopped recording; either
// participant may stop.
func (o *Orchestrator) StopRecording(ctx context.Context, id domain.AppointmentID, actor *domain.User) (domain.RecordingSession, error) {
	if actor == nil {
		return domain.RecordingSession{}, core.ErrRoleNotPermitted
	}
	o.lock(id)
	rec, changed := o.Recordings.Stop(id)
	o.unlock(id)

	if changed {
		o.broadcast(domain.RoomOf(id), "", core.Message{Type: core.MsgRecordingStopped, FromID: actor.ID})
		o.audit(ctx, actor.ID, app.AuditStopRecording, "recording", id, fmt.Sprintf("duration=%s", rec.Duration()))
	}
	return rec, nil
}

func (o *Orchestrator) Recording(id domain.AppointmentID) domain.RecordingSession {
	return o.Recordings.Get(id)
}

// StartTranscription opens the live transcript; consent must be granted.
func (o *Orchestrator) StartTranscription(ctx context.Context, id domain.AppointmentID, actor *domain.User) (domain.TranscriptionSession, error) {
	if actor == nil {
		return domain.TranscriptionSession{}, core.ErrRoleNotPermitted
	}
	o.lock(id)
	sess, err := o.Transcripts.Start(id)
	o.unlock(id)
	if err != nil {
		return sess, err
	}
	o.audit(ctx, actor.ID, app.AuditStartTranscription, "transcript", id, "")
	return sess, nil
}

// AppendTranscript adds a chunk. An empty speaker defaults to the actor's role.
func (o *Orchestrator) AppendTranscript(ctx context.Context, id domain.AppointmentID, actor *domain.User, speaker domain.Role, text string) (domain.TranscriptChunk, error) {
	if actor == nil {
		return domain.TranscriptChunk{}, core.ErrRoleNotPermitted
	}
	if speaker == "" {
		speaker = actor.Role
	}
	if speaker != domain.RoleClinician && speaker != domain.RolePatient {
		return domain.TranscriptChunk{}, core.ErrInvalidMessage
	}
	o.lock(id)
	chunk, err := o.Transcripts.Append(id, speaker, text)
	o.unlock(id)
	return chunk, err
}

// TranscribeAudio runs speech-to-text outside any lock and appends the text
// as the actor's turn. Silence yields a nil chunk.
func (o *Orchestrator) TranscribeAudio(ctx context.Context, id domain.AppointmentID, actor *domain.User, audio []byte) (*domain.TranscriptChunk, error) {
	if actor == nil {
		return nil, core.ErrRoleNotPermitted
	}
	if o.Transcriber == nil {
		return nil, core.ErrCapabilityUnavailable
	}
	if len(audio) == 0 {
		return nil, core.ErrInvalidMessage
	}
	if !o.Transcripts.Active(id) {
		return nil, core.ErrSessionNotActive
	}
	text, err := o.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	chunk, err := o.AppendTranscript(ctx, id, actor, actor.Role, text)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// EndTranscription closes the transcript and archives it.
func (o *Orchestrator) EndTranscription(ctx context.Context, id domain.AppointmentID, actor *domain.User) (domain.TranscriptionSession, error) {
	if actor == nil {
		return domain.TranscriptionSession{}, core.ErrRoleNotPermitted
	}
	o.lock(id)
	wasActive := o.Transcripts.Active(id)
	sess, err := o.Transcripts.End(id)
	o.unlock(id)
	if err != nil {
		return sess, err
	}
	if wasActive {
		o.archive(ctx, id, sess.Chunks)
		o.audit(ctx, actor.ID, app.AuditEndTranscription, "transcript", id, fmt.Sprintf("chunks=%d", len(sess.Chunks)))
	}
	return sess, nil
}

// Transcript returns chunks with Seq > after, valid in any session state.
func (o *Orchestrator) Transcript(ctx context.Context, id domain.AppointmentID, actor *domain.User, after uint64) domain.TranscriptionSession {
	sess, _ := o.Transcripts.Session(id)
	sess.Chunks = o.Transcripts.Transcript(id, after)
	if after == 0 && actor != nil {
		o.audit(ctx, actor.ID, app.AuditViewTranscript, "transcript", id, "")
	}
	return sess
}

// Summarize asks the summarization engine for the current transcript. Clinician only.
func (o *Orchestrator) Summarize(ctx context.Context, id domain.AppointmentID, actor *domain.User) (domain.Summary, error) {
	if err := requireRole(actor, domain.RoleClinician); err != nil {
		return domain.Summary{}, err
	}
	sum, err := o.Summaries.Generate(ctx, id)
	if err != nil {
		return sum, err
	}
	o.audit(ctx, actor.ID, app.AuditGenerateSummary, "transcript", id, fmt.Sprintf("key_points=%d", len(sum.KeyPoints)))
	return sum, nil
}

func (o *Orchestrator) Summary(id domain.AppointmentID) (domain.Summary, error) {
	sum, ok := o.Summaries.Latest(id)
	if !ok {
		return sum, core.ErrNotFound
	}
	return sum, nil
}

package app

import (
	"strings"
	"sync"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

type transcript struct {
	mu   sync.Mutex
	sess domain.TranscriptionSession
}

// TranscriptAggregator accumulates speaker-tagged chunks per appointment.
// Chunks are append-only and numbered from 1 without gaps.
type TranscriptAggregator struct {
	Clock Clock

	gate     ConsentChecker
	mu       sync.RWMutex
	sessions map[domain.AppointmentID]*transcript
}

// NewTranscriptAggregator builds an aggregator; a nil gate disables the consent check.
func NewTranscriptAggregator(gate ConsentChecker) *TranscriptAggregator {
	return &TranscriptAggregator{
		gate:     gate,
		sessions: make(map[domain.AppointmentID]*transcript),
	}
}

func (a *TranscriptAggregator) lookup(id domain.AppointmentID) (*transcript, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.sessions[id]
	return t, ok
}

func (a *TranscriptAggregator) getOrCreate(id domain.AppointmentID) *transcript {
	if t, ok := a.lookup(id); ok {
		return t
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.sessions[id]; ok {
		return t
	}
	t := &transcript{sess: domain.TranscriptionSession{AppointmentID: id, Status: domain.TranscriptionIdle}}
	a.sessions[id] = t
	return t
}

// Start activates the session for id.
func (a *TranscriptAggregator) Start(id domain.AppointmentID) (domain.TranscriptionSession, error) {
	if a.gate != nil && !a.gate.CheckGranted(id) {
		return domain.TranscriptionSession{AppointmentID: id, Status: domain.TranscriptionIdle}, core.ErrConsentRequired
	}
	t := a.getOrCreate(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.sess.Status {
	case domain.TranscriptionActive:
		return cloneTranscript(&t.sess), core.ErrAlreadyActive
	case domain.TranscriptionEnded:
		return cloneTranscript(&t.sess), core.ErrSessionEnded
	}
	now := a.Clock.now()
	t.sess.Status = domain.TranscriptionActive
	t.sess.StartedAt = &now
	log.Info().Str("module", "app.transcript").Str("appointment", string(id)).Msg("transcription started")
	return cloneTranscript(&t.sess), nil
}

// Append adds a chunk to an active session and returns it with its sequence number.
func (a *TranscriptAggregator) Append(id domain.AppointmentID, speaker domain.Role, text string) (domain.TranscriptChunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.TranscriptChunk{}, core.ErrInvalidMessage
	}
	t, ok := a.lookup(id)
	if !ok {
		return domain.TranscriptChunk{}, core.ErrSessionNotActive
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sess.Status != domain.TranscriptionActive {
		return domain.TranscriptChunk{}, core.ErrSessionNotActive
	}
	chunk := domain.TranscriptChunk{
		Seq:     uint64(len(t.sess.Chunks)) + 1,
		Speaker: speaker,
		Text:    text,
		At:      a.Clock.now(),
	}
	t.sess.Chunks = append(t.sess.Chunks, chunk)
	return chunk, nil
}

// Transcript returns the chunks with Seq > after. It is valid in any state,
// including after the session ended; an unknown id yields an empty list.
func (a *TranscriptAggregator) Transcript(id domain.AppointmentID, after uint64) []domain.TranscriptChunk {
	t, ok := a.lookup(id)
	if !ok {
		return []domain.TranscriptChunk{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if after >= uint64(len(t.sess.Chunks)) {
		return []domain.TranscriptChunk{}
	}
	return append([]domain.TranscriptChunk(nil), t.sess.Chunks[after:]...)
}

// End closes an active session. Ending an ended session returns it unchanged.
func (a *TranscriptAggregator) End(id domain.AppointmentID) (domain.TranscriptionSession, error) {
	t, ok := a.lookup(id)
	if !ok {
		return domain.TranscriptionSession{AppointmentID: id, Status: domain.TranscriptionIdle}, core.ErrSessionNotActive
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.sess.Status {
	case domain.TranscriptionEnded:
		return cloneTranscript(&t.sess), nil
	case domain.TranscriptionIdle:
		return cloneTranscript(&t.sess), core.ErrSessionNotActive
	}
	now := a.Clock.now()
	t.sess.Status = domain.TranscriptionEnded
	t.sess.EndedAt = &now
	log.Info().Str("module", "app.transcript").Str("appointment", string(id)).Int("chunks", len(t.sess.Chunks)).Msg("transcription ended")
	return cloneTranscript(&t.sess), nil
}

func (a *TranscriptAggregator) Session(id domain.AppointmentID) (domain.TranscriptionSession, bool) {
	t, ok := a.lookup(id)
	if !ok {
		return domain.TranscriptionSession{AppointmentID: id, Status: domain.TranscriptionIdle, Chunks: []domain.TranscriptChunk{}}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneTranscript(&t.sess), true
}

func (a *TranscriptAggregator) Active(id domain.AppointmentID) bool {
	s, _ := a.Session(id)
	return s.Status == domain.TranscriptionActive
}

func cloneTranscript(s *domain.TranscriptionSession) domain.TranscriptionSession {
	out := *s
	out.Chunks = append([]domain.TranscriptChunk{}, s.Chunks...)
	return out
}

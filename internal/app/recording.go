package app

import (
	"sync"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// RecordingCoordinator tracks the recording lifecycle per appointment.
// It never handles media; it only records who started what and when.
type RecordingCoordinator struct {
	Clock Clock

	gate     ConsentChecker
	mu       sync.RWMutex
	sessions map[domain.AppointmentID]*domain.RecordingSession
}

func NewRecordingCoordinator(gate ConsentChecker) *RecordingCoordinator {
	return &RecordingCoordinator{
		gate:     gate,
		sessions: make(map[domain.AppointmentID]*domain.RecordingSession),
	}
}

// Start moves idle or stopped to recording. Consent is checked at the
// transition instant, under the coordinator lock.
func (c *RecordingCoordinator) Start(id domain.AppointmentID, by domain.UserID) (domain.RecordingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if ok && s.Status == domain.RecordingActive {
		return *s, core.ErrAlreadyRecording
	}
	if c.gate == nil || !c.gate.CheckGranted(id) {
		if ok {
			return *s, core.ErrConsentRequired
		}
		return idleRecording(id), core.ErrConsentRequired
	}
	if !ok {
		s = &domain.RecordingSession{AppointmentID: id}
		c.sessions[id] = s
	}
	now := c.Clock.now()
	s.Status = domain.RecordingActive
	s.StartedAt = &now
	s.StoppedAt = nil
	s.StartedBy = by
	s.Segments++
	log.Info().Str("module", "app.recording").Str("appointment", string(id)).Str("by", string(by)).Int("segment", s.Segments).Msg("recording started")
	return *s, nil
}

// Stop moves recording to stopped. Stopping an idle or stopped session is a
// no-op; changed reports whether a transition happened.
func (c *RecordingCoordinator) Stop(id domain.AppointmentID) (rec domain.RecordingSession, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return idleRecording(id), false
	}
	if s.Status != domain.RecordingActive {
		return *s, false
	}
	now := c.Clock.now()
	s.Status = domain.RecordingStopped
	s.StoppedAt = &now
	log.Info().Str("module", "app.recording").Str("appointment", string(id)).Dur("duration", s.Duration()).Msg("recording stopped")
	return *s, true
}

func (c *RecordingCoordinator) Get(id domain.AppointmentID) domain.RecordingSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.sessions[id]; ok {
		return *s
	}
	return idleRecording(id)
}

func (c *RecordingCoordinator) Active(id domain.AppointmentID) bool {
	return c.Get(id).Status == domain.RecordingActive
}

func idleRecording(id domain.AppointmentID) domain.RecordingSession {
	return domain.RecordingSession{AppointmentID: id, Status: domain.RecordingIdle}
}

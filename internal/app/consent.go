package app

import (
	"sync"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// ConsentChecker is the predicate consulted before recording or transcription starts.
type ConsentChecker interface {
	CheckGranted(id domain.AppointmentID) bool
}

// ConsentGate owns one ConsentRecord per appointment and is its only writer.
type ConsentGate struct {
	Clock Clock

	mu      sync.RWMutex
	records map[domain.AppointmentID]*domain.ConsentRecord
}

func NewConsentGate() *ConsentGate {
	return &ConsentGate{records: make(map[domain.AppointmentID]*domain.ConsentRecord)}
}

// Request creates a pending record if none exists and otherwise returns the
// current one untouched. created reports whether a record was made.
func (g *ConsentGate) Request(id domain.AppointmentID) (rec domain.ConsentRecord, created bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.records[id]; ok {
		return cloneConsent(r), false
	}
	now := g.Clock.now()
	r := &domain.ConsentRecord{
		AppointmentID: id,
		Status:        domain.ConsentPending,
		ConsentText:   domain.DefaultConsentText,
		CreatedAt:     now,
		RequestedAt:   now,
	}
	g.records[id] = r
	log.Info().Str("module", "app.consent").Str("appointment", string(id)).Msg("consent requested")
	return cloneConsent(r), true
}

// Respond records the patient's decision. Decisions are final for a lifecycle.
func (g *ConsentGate) Respond(id domain.AppointmentID, granted bool) (domain.ConsentRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.records[id]
	if !ok {
		return domain.ConsentRecord{}, core.ErrNoPendingRequest
	}
	if r.Status != domain.ConsentPending {
		return cloneConsent(r), core.ErrAlreadyDecided
	}
	now := g.Clock.now()
	r.DecidedAt = &now
	if granted {
		r.Status = domain.ConsentGranted
		r.GrantedAt = &now
	} else {
		r.Status = domain.ConsentDenied
	}
	log.Info().Str("module", "app.consent").Str("appointment", string(id)).Str("status", string(r.Status)).Msg("consent decided")
	return cloneConsent(r), nil
}

// Renew archives a denied decision and opens a new pending lifecycle.
// Renewing a pending record is a no-op; a granted one cannot be renewed.
func (g *ConsentGate) Renew(id domain.AppointmentID) (domain.ConsentRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.records[id]
	if !ok {
		return domain.ConsentRecord{}, core.ErrNoPendingRequest
	}
	switch r.Status {
	case domain.ConsentPending:
		return cloneConsent(r), nil
	case domain.ConsentGranted:
		return cloneConsent(r), core.ErrAlreadyDecided
	}
	decided := r.RequestedAt
	if r.DecidedAt != nil {
		decided = *r.DecidedAt
	}
	r.History = append(r.History, domain.ConsentDecision{
		Status:      r.Status,
		RequestedAt: r.RequestedAt,
		DecidedAt:   decided,
	})
	r.Status = domain.ConsentPending
	r.RequestedAt = g.Clock.now()
	r.DecidedAt = nil
	r.GrantedAt = nil
	log.Info().Str("module", "app.consent").Str("appointment", string(id)).Int("lifecycle", len(r.History)+1).Msg("consent renewed")
	return cloneConsent(r), nil
}

func (g *ConsentGate) Get(id domain.AppointmentID) (domain.ConsentRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.records[id]
	if !ok {
		return domain.ConsentRecord{}, false
	}
	return cloneConsent(r), true
}

func (g *ConsentGate) CheckGranted(id domain.AppointmentID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.records[id]
	return ok && r.Status == domain.ConsentGranted
}

func cloneConsent(r *domain.ConsentRecord) domain.ConsentRecord {
	out := *r
	out.History = append([]domain.ConsentDecision(nil), r.History...)
	return out
}

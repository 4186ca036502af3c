package app

import (
	"context"
	"strings"
	"sync"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// MinTranscriptLen is the shortest rendered transcript worth summarizing.
const MinTranscriptLen = 10

// SummaryService renders a transcript, hands it to the external engine and
// keeps the latest summary per appointment.
type SummaryService struct {
	Summarizer  core.Summarizer
	Transcripts *TranscriptAggregator
	Clock       Clock

	mu     sync.RWMutex
	latest map[domain.AppointmentID]domain.Summary
}

func NewSummaryService(s core.Summarizer, t *TranscriptAggregator) *SummaryService {
	return &SummaryService{
		Summarizer:  s,
		Transcripts: t,
		latest:      make(map[domain.AppointmentID]domain.Summary),
	}
}

// Generate must not be called with a room lock held: the engine call is network I/O.
func (s *SummaryService) Generate(ctx context.Context, id domain.AppointmentID) (domain.Summary, error) {
	if s.Summarizer == nil {
		return domain.Summary{}, core.ErrCapabilityUnavailable
	}
	text := domain.RenderTranscript(s.Transcripts.Transcript(id, 0))
	if len(strings.TrimSpace(text)) < MinTranscriptLen {
		return domain.Summary{}, core.ErrTranscriptShort
	}
	sum, err := s.Summarizer.Summarize(ctx, text)
	if err != nil {
		log.Warn().Str("module", "app.summary").Str("appointment", string(id)).Err(err).Msg("summarizer failed")
		return domain.Summary{}, err
	}
	sum.AppointmentID = id
	if sum.GeneratedAt.IsZero() {
		sum.GeneratedAt = s.Clock.now()
	}
	if sum.KeyPoints == nil {
		sum.KeyPoints = []string{}
	}
	s.mu.Lock()
	s.latest[id] = sum
	s.mu.Unlock()
	return sum, nil
}

func (s *SummaryService) Latest(id domain.AppointmentID) (domain.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.latest[id]
	return sum, ok
}

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
)

const maxExtractedPoints = 5

var clinicalKeywords = []string{
	"pain", "symptom", "feel", "hurt", "problem",
	"medication", "treatment", "diagnosis", "concern", "history",
}

// ExtractiveSummarizer is the offline fallback used when no LLM is configured:
// it picks lines mentioning clinical keywords as key points.
type ExtractiveSummarizer struct{}

func (ExtractiveSummarizer) Summarize(_ context.Context, transcript string) (domain.Summary, error) {
	if len(strings.TrimSpace(transcript)) < MinTranscriptLen {
		return domain.Summary{}, core.ErrTranscriptShort
	}
	var lines []string
	for _, l := range strings.Split(transcript, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	points := []string{}
	for _, l := range lines {
		if !mentionsClinicalKeyword(l) {
			continue
		}
		l = stripSpeaker(l)
		if len(l) > 10 {
			points = append(points, l)
		}
		if len(points) == maxExtractedPoints {
			break
		}
	}
	if len(points) == 0 {
		points = []string{"Medical consultation completed", "Full transcript available for review"}
	}

	words := len(strings.Fields(transcript))
	text := fmt.Sprintf("Medical consultation between %s and %s. "+
		"Transcript contains %d dialogue exchanges (%d words). "+
		"%d key points identified. Review full transcript for complete medical details.",
		domain.RoleClinician.Label(), domain.RolePatient.Label(), len(lines), words, len(points))
	return domain.Summary{Text: text, KeyPoints: points}, nil
}

func mentionsClinicalKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, k := range clinicalKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// stripSpeaker drops the "[HH:MM:SS] Speaker:" prefix of a rendered line.
func stripSpeaker(line string) string {
	if strings.HasPrefix(line, "[") {
		if i := strings.Index(line, "] "); i >= 0 {
			line = line[i+2:]
		}
	}
	if _, rest, ok := strings.Cut(line, ":"); ok {
		return strings.TrimSpace(rest)
	}
	return line
}

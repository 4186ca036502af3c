package core

import (
	"context"

	"github.com/dkeye/Consult/internal/domain"
)

//go:generate mockgen -destination=mocks/collab_mock.go -package=mocks github.com/dkeye/Consult/internal/core Transcriber,Summarizer

// Transcriber is the external speech-to-text engine.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Summarizer is the external summarization engine.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (domain.Summary, error)
}

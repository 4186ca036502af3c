// Package llm summarizes consultation transcripts with an OpenAI-compatible
// chat completion API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/Consult/internal/domain"
	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultModel  = "gpt-4o-mini"
	maxKeyPoints  = 10
	keyPointWidth = 100
)

const systemPrompt = "You are a medical assistant helping doctors document patient consultations."

const promptTemplate = `Analyze this doctor-patient interview transcript and provide a professional medical summary.

Structure your summary as follows:

**CHIEF COMPLAINT**
[Main reason for visit]

**SYMPTOMS**
[Key symptoms discussed with relevant details]

**MEDICAL HISTORY**
[Any past medical history mentioned]

**ASSESSMENT**
[Doctor's observations and diagnosis]

**TREATMENT PLAN**
[Recommended treatments, medications, or actions]

**FOLLOW-UP**
[Any follow-up recommendations]

Keep the summary concise, professional, and focused on medically relevant information.

TRANSCRIPT:
%s

SUMMARY:`

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Summarizer implements core.Summarizer.
type Summarizer struct {
	client openaigo.Client
	model  string
}

func NewSummarizer(cfg Config) (*Summarizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: api_key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		opts = append(opts, option.WithBaseURL(base+"/"))
	}
	return &Summarizer{client: openaigo.NewClient(opts...), model: model}, nil
}

func (s *Summarizer) Summarize(ctx context.Context, transcript string) (domain.Summary, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(s.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.SystemMessage(systemPrompt),
			openaigo.UserMessage(fmt.Sprintf(promptTemplate, transcript)),
		},
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("llm summarize: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return domain.Summary{}, errors.New("llm returned empty choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return domain.Summary{}, errors.New("llm returned an empty summary")
	}
	return domain.Summary{Text: text, KeyPoints: ExtractKeyPoints(text)}, nil
}

// ExtractKeyPoints turns "**HEADER**\ncontent" sections into "HEADER: first
// line" points. Without sections it falls back to the first lines.
func ExtractKeyPoints(summary string) []string {
	points := []string{}
	sections := strings.Split(summary, "**")
	for i := 1; i < len(sections); i += 2 {
		header := strings.TrimSpace(sections[i])
		if header == "" || i+1 >= len(sections) {
			continue
		}
		content := strings.TrimSpace(sections[i+1])
		if content == "" {
			continue
		}
		first, _, _ := strings.Cut(content, "\n")
		if first = truncate(strings.TrimSpace(first), keyPointWidth); first != "" {
			points = append(points, header+": "+first)
		}
	}
	if len(points) == 0 {
		for _, l := range strings.Split(summary, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				points = append(points, l)
			}
			if len(points) == 5 {
				break
			}
		}
	}
	if len(points) > maxKeyPoints {
		points = points[:maxKeyPoints]
	}
	return points
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

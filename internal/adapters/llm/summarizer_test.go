package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const fakeSummary = "**CHIEF COMPLAINT**\nKnee pain after running\n\n**TREATMENT PLAN**\nRest and ibuprofen\nReview in two weeks"

func TestSummarizeCallsChatCompletions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "Patient: my knee hurts") {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": fakeSummary},
			}},
		})
	}))
	defer srv.Close()

	s, err := NewSummarizer(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewSummarizer: %v", err)
	}
	sum, err := s.Summarize(context.Background(), "[10:00:00] Patient: my knee hurts")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Text != fakeSummary {
		t.Fatalf("text = %q", sum.Text)
	}
	want := []string{"CHIEF COMPLAINT: Knee pain after running", "TREATMENT PLAN: Rest and ibuprofen"}
	if len(sum.KeyPoints) != len(want) || sum.KeyPoints[0] != want[0] || sum.KeyPoints[1] != want[1] {
		t.Fatalf("key points = %#v", sum.KeyPoints)
	}
}

func TestSummarizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	s, _ := NewSummarizer(Config{BaseURL: srv.URL, APIKey: "nope", Timeout: time.Second})
	if _, err := s.Summarize(context.Background(), "[10:00:00] Doctor: hello there"); err == nil {
		t.Fatal("expected error")
	}
}

func TestExtractKeyPointsFallback(t *testing.T) {
	got := ExtractKeyPoints("Patient reports fatigue.\n\nNo acute findings.\n")
	if len(got) != 2 || got[0] != "Patient reports fatigue." {
		t.Fatalf("points = %#v", got)
	}
}

func TestNewSummarizerNeedsKey(t *testing.T) {
	if _, err := NewSummarizer(Config{}); err == nil {
		t.Fatal("missing api key accepted")
	}
}

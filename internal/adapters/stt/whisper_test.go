package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTranscribeSendsMultipartAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		if string(data) != "fake-audio" {
			t.Errorf("audio = %q", data)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text":"I have a headache","language":"en"}`)
	}))
	defer srv.Close()

	text, err := NewWhisperClient(srv.URL, time.Second).Transcribe(context.Background(), []byte("fake-audio"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "I have a headache" {
		t.Fatalf("text = %q", text)
	}
}

func TestTranscribeSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewWhisperClient(srv.URL, time.Second).Transcribe(context.Background(), []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("err = %v", err)
	}
}

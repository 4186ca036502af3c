package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"clinician", RoleClinician, false},
		{"Doctor", RoleClinician, false},
		{" patient ", RolePatient, false},
		{"nurse", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownRole) {
				t.Fatalf("ParseRole(%q) err = %v, want ErrUnknownRole", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestNewUserValidation(t *testing.T) {
	if _, err := NewUser("", RolePatient); !errors.Is(err, ErrUserIDEmpty) {
		t.Fatalf("expected ErrUserIDEmpty, got %v", err)
	}
	if _, err := NewUser(strings.Repeat("x", MaxUserIDLen+1), RolePatient); !errors.Is(err, ErrUserIDTooLong) {
		t.Fatalf("expected ErrUserIDTooLong, got %v", err)
	}
	if _, err := NewUser("u1", Role("nurse")); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	u, err := NewUser("u1", RoleClinician)
	if err != nil {
		t.Fatalf("NewUser failed: %v", err)
	}
	if u.ID != "u1" || u.Role != RoleClinician {
		t.Fatalf("unexpected user %#v", u)
	}
}

func TestRenderTranscript(t *testing.T) {
	at := time.Date(2026, 1, 2, 9, 5, 7, 0, time.UTC)
	got := RenderTranscript([]TranscriptChunk{
		{Seq: 1, Speaker: RoleClinician, Text: "hello", At: at},
		{Seq: 2, Speaker: RolePatient, Text: "hi", At: at.Add(time.Second)},
	})
	want := "[09:05:07] Doctor: hello\n[09:05:08] Patient: hi"
	if got != want {
		t.Fatalf("RenderTranscript = %q, want %q", got, want)
	}
}

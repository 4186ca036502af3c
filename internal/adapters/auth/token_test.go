package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Consult/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	codec, err := NewTokenCodec("unit-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	u, _ := domain.NewUser("doc-1", domain.RoleClinician)
	token, err := codec.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.ID != "doc-1" || got.Role != domain.RoleClinician {
		t.Fatalf("user = %+v", got)
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	codec, _ := NewTokenCodec("unit-test-secret", time.Hour)
	other, _ := NewTokenCodec("another-secret", time.Hour)
	u, _ := domain.NewUser("pat-1", domain.RolePatient)
	token, _ := codec.Issue(u)

	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret err = %v", err)
	}
	if _, err := codec.Verify(token[:len(token)-2]); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("truncated token err = %v", err)
	}
	if _, err := codec.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token err = %v", err)
	}
}

func TestNewTokenCodecNeedsSecret(t *testing.T) {
	if _, err := NewTokenCodec("", time.Hour); err == nil {
		t.Fatal("empty secret accepted")
	}
}

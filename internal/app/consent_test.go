package app

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
)

func fixedClock(ts ...time.Time) Clock {
	i := 0
	return func() time.Time {
		t := ts[min(i, len(ts)-1)]
		i++
		return t
	}
}

func TestConsentLifecycle(t *testing.T) {
	g := NewConsentGate()

	if _, err := g.Respond("A1", true); !errors.Is(err, core.ErrNoPendingRequest) {
		t.Fatalf("respond without request err = %v", err)
	}
	rec, created := g.Request("A1")
	if !created || rec.Status != domain.ConsentPending || rec.ConsentText != domain.DefaultConsentText {
		t.Fatalf("request = %#v, created %v", rec, created)
	}
	if _, created := g.Request("A1"); created {
		t.Fatal("repeated request created a duplicate")
	}
	if g.CheckGranted("A1") {
		t.Fatal("pending consent reported as granted")
	}
	rec, err := g.Respond("A1", true)
	if err != nil || rec.Status != domain.ConsentGranted || rec.GrantedAt == nil {
		t.Fatalf("respond = %#v, %v", rec, err)
	}
	if !g.CheckGranted("A1") {
		t.Fatal("granted consent not reported")
	}
	rec, err = g.Respond("A1", false)
	if !errors.Is(err, core.ErrAlreadyDecided) || rec.Status != domain.ConsentGranted {
		t.Fatalf("second respond = %#v, %v", rec, err)
	}
	if _, err := g.Renew("A1"); !errors.Is(err, core.ErrAlreadyDecided) {
		t.Fatalf("renew granted err = %v", err)
	}
}

func TestConsentDeniedThenRenewed(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	g := NewConsentGate()
	g.Clock = fixedClock(t0, t0.Add(time.Minute), t0.Add(2*time.Minute))

	g.Request("A1")
	if _, err := g.Respond("A1", false); err != nil {
		t.Fatalf("deny: %v", err)
	}
	if g.CheckGranted("A1") {
		t.Fatal("denied consent reported as granted")
	}
	rec, err := g.Renew("A1")
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if rec.Status != domain.ConsentPending || len(rec.History) != 1 {
		t.Fatalf("renewed record = %#v", rec)
	}
	if h := rec.History[0]; h.Status != domain.ConsentDenied || !h.DecidedAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("history = %#v", h)
	}
	if !rec.RequestedAt.Equal(t0.Add(2 * time.Minute)) {
		t.Fatalf("requested at = %v", rec.RequestedAt)
	}
	if again, err := g.Renew("A1"); err != nil || len(again.History) != 1 {
		t.Fatalf("renew pending = %#v, %v", again, err)
	}
	if _, err := g.Respond("A1", true); err != nil || !g.CheckGranted("A1") {
		t.Fatalf("grant after renew: %v", err)
	}
}

func TestRecordingRequiresConsent(t *testing.T) {
	g := NewConsentGate()
	rc := NewRecordingCoordinator(g)

	if _, err := rc.Start("A1", "doc"); !errors.Is(err, core.ErrConsentRequired) {
		t.Fatalf("start without consent err = %v", err)
	}
	g.Request("A1")
	if _, err := rc.Start("A1", "doc"); !errors.Is(err, core.ErrConsentRequired) {
		t.Fatalf("start with pending consent err = %v", err)
	}
	if rec := rc.Get("A1"); rec.Status != domain.RecordingIdle {
		t.Fatalf("status = %s, want idle", rec.Status)
	}
	g.Respond("A1", true)
	rec, err := rc.Start("A1", "doc")
	if err != nil || rec.Status != domain.RecordingActive || rec.StartedBy != "doc" {
		t.Fatalf("start = %#v, %v", rec, err)
	}
	if _, err := rc.Start("A1", "doc"); !errors.Is(err, core.ErrAlreadyRecording) {
		t.Fatalf("double start err = %v", err)
	}
}

func TestRecordingStopIsIdempotent(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	g := NewConsentGate()
	g.Request("A1")
	g.Respond("A1", true)
	rc := NewRecordingCoordinator(g)
	rc.Clock = fixedClock(t0, t0.Add(90*time.Second))

	if rec, changed := rc.Stop("A1"); changed || rec.Status != domain.RecordingIdle {
		t.Fatalf("stop idle = %#v, %v", rec, changed)
	}
	rc.Start("A1", "doc")
	rec, changed := rc.Stop("A1")
	if !changed || rec.Status != domain.RecordingStopped || rec.Duration() != 90*time.Second {
		t.Fatalf("stop = %#v, %v", rec, changed)
	}
	again, changed := rc.Stop("A1")
	if changed || again.Status != domain.RecordingStopped || !again.StoppedAt.Equal(*rec.StoppedAt) {
		t.Fatalf("second stop = %#v, %v", again, changed)
	}
	if rc.Active("A1") {
		t.Fatal("stopped recording reported active")
	}
	restarted, err := rc.Start("A1", "doc")
	if err != nil || restarted.Segments != 2 {
		t.Fatalf("restart = %#v, %v", restarted, err)
	}
}

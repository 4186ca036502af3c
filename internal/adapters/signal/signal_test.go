package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Consult/internal/app/orch"
	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRoomRateLimiter(3, 50*time.Millisecond)
	for i := range 3 {
		if !rl.Allow("u1") {
			t.Fatalf("message %d refused inside the limit", i)
		}
	}
	if rl.Allow("u1") {
		t.Fatal("fourth message allowed")
	}
	if !rl.Allow("u2") {
		t.Fatal("limit leaked across users")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("u1") {
		t.Fatal("window did not slide")
	}

	rl.Forget("u1")
	if _, ok := rl.history["u1"]; ok {
		t.Fatal("Forget kept history")
	}
}

func TestTrySendNeverBlocks(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 1)}
	if err := c.TrySend(core.Frame("a")); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := c.TrySend(core.Frame("b")); !errors.Is(err, core.ErrBackpressure) {
		t.Fatalf("full buffer err = %v", err)
	}
	if got := <-c.send; string(got) != "a" {
		t.Fatalf("queued frame = %q", got)
	}

	c.closed = true
	if err := c.TrySend(core.Frame("c")); !errors.Is(err, core.ErrConnClosed) {
		t.Fatalf("closed conn err = %v", err)
	}
}

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func TestStaleConnectionKeepsLiveRateWindow(t *testing.T) {
	o := orch.New(nil, nil)
	ctl := &SignalWSController{Orch: o, Limiter: NewRoomRateLimiter(2, time.Minute)}
	user, _ := domain.NewUser("pat", domain.RolePatient)

	stale := &peer{sid: "s-old", user: user, room: "R1"}
	live := core.NewParticipantSession("s-new", domain.NewMember(user), nopConn{})
	if _, err := o.Join(context.Background(), "R1", live, false); err != nil {
		t.Fatalf("join: %v", err)
	}
	ctl.Limiter.Allow("pat")
	ctl.Limiter.Allow("pat")

	ctl.forgetRate(stale)
	if ctl.Limiter.Allow("pat") {
		t.Fatal("closing a stale connection reset the live connection's window")
	}

	o.Leave(context.Background(), "R1", "pat", "s-new")
	ctl.forgetRate(&peer{sid: "s-new", user: user, room: "R1"})
	if !ctl.Limiter.Allow("pat") {
		t.Fatal("window kept after the user's last connection closed")
	}
}

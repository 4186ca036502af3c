package app

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/sourcegraph/conc"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func session(t *testing.T, sid, user string, role domain.Role) core.ParticipantSession {
	t.Helper()
	u, err := domain.NewUser(user, role)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	return core.NewParticipantSession(core.SessionID(sid), domain.NewMember(u), nopConn{})
}

func TestRegistryCapacityAndTeardown(t *testing.T) {
	reg := NewRegistry()
	var torn []domain.RoomID
	reg.OnTeardown(func(id domain.RoomID) { torn = append(torn, id) })

	if _, err := reg.Join("R1", session(t, "s1", "doc", domain.RoleClinician)); err != nil {
		t.Fatalf("join doc: %v", err)
	}
	if _, err := reg.Join("R1", session(t, "s2", "pat", domain.RolePatient)); err != nil {
		t.Fatalf("join pat: %v", err)
	}
	if _, err := reg.Join("R1", session(t, "s3", "x", domain.RolePatient)); !errors.Is(err, core.ErrRoomFull) {
		t.Fatalf("third join err = %v, want ErrRoomFull", err)
	}
	if got := reg.Snapshot("R1"); len(got) != 2 || got[0].ID != "doc" || got[1].ID != "pat" {
		t.Fatalf("snapshot = %#v", got)
	}

	if _, ok := reg.Leave("R1", "doc", "s1"); !ok {
		t.Fatal("leave doc failed")
	}
	if len(torn) != 0 {
		t.Fatalf("teardown after first leave: %v", torn)
	}
	if _, ok := reg.Leave("R1", "pat", "s2"); !ok {
		t.Fatal("leave pat failed")
	}
	if len(torn) != 1 || torn[0] != "R1" {
		t.Fatalf("teardown events = %v, want [R1]", torn)
	}
	if _, ok := reg.Rooms.Get("R1"); ok {
		t.Fatal("room still registered after teardown")
	}
	if _, ok := reg.Leave("R1", "pat", "s2"); ok {
		t.Fatal("second leave should be a no-op")
	}

	if _, err := reg.Join("R1", session(t, "s4", "pat", domain.RolePatient)); err != nil {
		t.Fatalf("rejoin after teardown: %v", err)
	}
}

func TestRegistryEvictKeepsNewEntry(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Join("R1", session(t, "old", "doc", domain.RoleClinician)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := reg.Join("R1", session(t, "new", "doc", domain.RoleClinician)); !errors.Is(err, core.ErrDuplicateParticipant) {
		t.Fatalf("duplicate join err = %v", err)
	}
	stale, ok := reg.Evict("R1", "doc")
	if !ok || stale.ID() != "old" {
		t.Fatalf("evict = %v, %v", stale, ok)
	}
	if _, err := reg.Join("R1", session(t, "new", "doc", domain.RoleClinician)); err != nil {
		t.Fatalf("join after evict: %v", err)
	}
	if _, ok := reg.Leave("R1", "doc", "old"); ok {
		t.Fatal("stale session removed the new entry")
	}
	if _, _, ok := reg.RoomOf("new"); !ok {
		t.Fatal("new session not bound")
	}
	if _, _, ok := reg.RoomOf("old"); ok {
		t.Fatal("old session still bound")
	}
}

func TestRegistryConcurrentJoinsNeverExceedTwo(t *testing.T) {
	reg := NewRegistry()
	var accepted atomic.Int32
	var wg conc.WaitGroup
	for i := range 16 {
		role := domain.RolePatient
		if i%2 == 0 {
			role = domain.RoleClinician
		}
		ps := session(t, "s"+string(rune('a'+i)), "u"+string(rune('a'+i)), role)
		wg.Go(func() {
			if _, err := reg.Join("R1", ps); err == nil {
				accepted.Add(1)
			}
		})
	}
	wg.Wait()
	if accepted.Load() != 2 || reg.MemberCount("R1") != 2 {
		t.Fatalf("accepted = %d, members = %d", accepted.Load(), reg.MemberCount("R1"))
	}
}

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	var km KeyedMutex
	counter := 0
	var wg conc.WaitGroup
	for range 50 {
		wg.Go(func() {
			km.Lock("A1")
			counter++
			km.Unlock("A1")
		})
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d", counter)
	}
	km.Lock("A1")
	km.Lock("B1")
	km.Unlock("B1")
	km.Unlock("A1")
	if len(km.locks) != 0 {
		t.Fatalf("locks leaked: %d", len(km.locks))
	}
}

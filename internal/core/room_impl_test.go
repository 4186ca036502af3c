package core

import (
	"errors"
	"testing"

	"github.com/dkeye/Consult/internal/domain"
)

type nopConn struct{}

func (nopConn) TrySend(Frame) error { return nil }
func (nopConn) Close()              {}

func newSession(t *testing.T, sid, user string, role domain.Role) ParticipantSession {
	t.Helper()
	u, err := domain.NewUser(user, role)
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	return NewParticipantSession(SessionID(sid), domain.NewMember(u), nopConn{})
}

func TestRoomRejectsThirdJoin(t *testing.T) {
	room := NewRoomService("R1")
	if _, err := room.Join(newSession(t, "s1", "doc", domain.RoleClinician)); err != nil {
		t.Fatalf("first join: %v", err)
	}
	snap, err := room.Join(newSession(t, "s2", "pat", domain.RolePatient))
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if len(snap) != 2 || snap[0].ID != "doc" || snap[1].ID != "pat" {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	if _, err := room.Join(newSession(t, "s3", "other", domain.RolePatient)); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("third join err = %v, want ErrRoomFull", err)
	}
	if room.MemberCount() != 2 {
		t.Fatalf("member count = %d, want 2", room.MemberCount())
	}
}

func TestRoomDuplicateAndRoleTaken(t *testing.T) {
	room := NewRoomService("R1")
	if _, err := room.Join(newSession(t, "s1", "doc", domain.RoleClinician)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := room.Join(newSession(t, "s2", "doc", domain.RoleClinician)); !errors.Is(err, ErrDuplicateParticipant) {
		t.Fatalf("err = %v, want ErrDuplicateParticipant", err)
	}
	if _, err := room.Join(newSession(t, "s3", "doc2", domain.RoleClinician)); !errors.Is(err, ErrRoleTaken) {
		t.Fatalf("err = %v, want ErrRoleTaken", err)
	}
}

func TestRoomLeaveIgnoresStaleSession(t *testing.T) {
	room := NewRoomService("R1")
	if _, err := room.Join(newSession(t, "old", "doc", domain.RoleClinician)); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, ok := room.Evict("doc"); !ok {
		t.Fatal("expected evict to find the stale entry")
	}
	if _, err := room.Join(newSession(t, "new", "doc", domain.RoleClinician)); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if ps, _ := room.Leave("doc", "old"); ps != nil {
		t.Fatal("stale session must not remove the new entry")
	}
	ps, empty := room.Leave("doc", "new")
	if ps == nil || !empty {
		t.Fatalf("leave = %v, empty=%v", ps, empty)
	}
	if _, err := room.Join(newSession(t, "late", "pat", domain.RolePatient)); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("join on closed room err = %v, want ErrRoomClosed", err)
	}
}

func TestRoomPeers(t *testing.T) {
	room := NewRoomService("R1")
	_, _ = room.Join(newSession(t, "s1", "doc", domain.RoleClinician))
	_, _ = room.Join(newSession(t, "s2", "pat", domain.RolePatient))
	peers := room.Peers("doc")
	if len(peers) != 1 || UserOf(peers[0]) != "pat" {
		t.Fatalf("unexpected peers %#v", peers)
	}
	if len(room.Members()) != 2 {
		t.Fatalf("members = %d, want 2", len(room.Members()))
	}
}

func TestKindAndCode(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), ErrConsentRequired)
	if KindOf(wrapped) != KindPrecondition {
		t.Fatalf("KindOf = %q", KindOf(wrapped))
	}
	if CodeOf(ErrRoomFull) != "room_full" {
		t.Fatalf("CodeOf = %q", CodeOf(ErrRoomFull))
	}
	if CodeOf(errors.New("boom")) != "internal" {
		t.Fatal("unclassified errors map to internal")
	}
}

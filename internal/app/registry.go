package app

import (
	"errors"
	"sync"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// joinAttempts bounds retries when a join races with the teardown of the same room.
const joinAttempts = 3

// TeardownFunc is notified after the last participant left a room.
type TeardownFunc func(domain.RoomID)

type sessionEntry struct {
	RoomID  domain.RoomID
	Session core.ParticipantSession
}

// Registry is the room registry: the only owner of participant entries.
type Registry struct {
	Rooms *RoomManager

	mu        sync.RWMutex
	sessions  map[core.SessionID]*sessionEntry
	listeners []TeardownFunc
}

func NewRegistry() *Registry {
	return &Registry{
		Rooms:    NewRoomManager(),
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

// OnTeardown subscribes fn to room teardown events.
func (r *Registry) OnTeardown(fn TeardownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Join registers ps in room id, creating the room on first join.
func (r *Registry) Join(id domain.RoomID, ps core.ParticipantSession) ([]core.ParticipantDTO, error) {
	for range joinAttempts {
		room := r.Rooms.GetOrCreate(id)
		snap, err := room.Join(ps)
		if errors.Is(err, core.ErrRoomClosed) {
			r.Rooms.Remove(id, room)
			continue
		}
		if err != nil {
			log.Info().Str("module", "app.registry").Str("room", string(id)).Str("user", string(core.UserOf(ps))).Err(err).Msg("join rejected")
			return nil, err
		}
		r.mu.Lock()
		r.sessions[ps.ID()] = &sessionEntry{RoomID: id, Session: ps}
		r.mu.Unlock()
		log.Info().Str("module", "app.registry").Str("room", string(id)).Str("sid", string(ps.ID())).Msg("bound session")
		return snap, nil
	}
	return nil, core.ErrRoomClosed
}

// Leave removes the entry of user bound to sid. If the room became empty it
// is dropped and teardown listeners run, outside any registry lock.
func (r *Registry) Leave(id domain.RoomID, user domain.UserID, sid core.SessionID) (core.ParticipantSession, bool) {
	room, ok := r.Rooms.Get(id)
	if !ok {
		return nil, false
	}
	ps, empty := room.Leave(user, sid)
	if ps == nil {
		return nil, false
	}
	r.unbind(sid)
	if empty {
		r.Rooms.Remove(id, room)
		log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room torn down")
		r.emitTeardown(id)
	}
	return ps, true
}

// Evict removes user's entry whatever its session; used to replace a stale
// connection on reconnect. It never tears the room down.
func (r *Registry) Evict(id domain.RoomID, user domain.UserID) (core.ParticipantSession, bool) {
	room, ok := r.Rooms.Get(id)
	if !ok {
		return nil, false
	}
	ps, ok := room.Evict(user)
	if !ok {
		return nil, false
	}
	r.unbind(ps.ID())
	return ps, true
}

// Snapshot lists the participants of id in join order.
func (r *Registry) Snapshot(id domain.RoomID) []core.ParticipantDTO {
	room, ok := r.Rooms.Get(id)
	if !ok {
		return []core.ParticipantDTO{}
	}
	return room.Snapshot()
}

func (r *Registry) MemberCount(id domain.RoomID) int {
	room, ok := r.Rooms.Get(id)
	if !ok {
		return 0
	}
	return room.MemberCount()
}

func (r *Registry) Member(id domain.RoomID, user domain.UserID) (core.ParticipantSession, bool) {
	room, ok := r.Rooms.Get(id)
	if !ok {
		return nil, false
	}
	return room.Member(user)
}

func (r *Registry) Peers(id domain.RoomID, user domain.UserID) []core.ParticipantSession {
	room, ok := r.Rooms.Get(id)
	if !ok {
		return nil
	}
	return room.Peers(user)
}

func (r *Registry) Members(id domain.RoomID) []core.ParticipantSession {
	room, ok := r.Rooms.Get(id)
	if !ok {
		return nil
	}
	return room.Members()
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, core.ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return "", nil, false
	}
	return entry.RoomID, entry.Session, true
}

func (r *Registry) unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) emitTeardown(id domain.RoomID) {
	r.mu.RLock()
	listeners := append([]TeardownFunc(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(id)
	}
}

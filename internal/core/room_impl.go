package core

import (
	"sync"
	"time"

	"github.com/dkeye/Consult/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory two-party room.
// It never closes adapter-owned resources.
type roomImpl struct {
	room   *domain.Room
	mu     sync.RWMutex
	order  []domain.UserID
	byUser map[domain.UserID]ParticipantSession
	closed bool
}

func NewRoomService(id domain.RoomID) RoomService {
	return &roomImpl{
		room:   &domain.Room{ID: id, CreatedAt: time.Now()},
		byUser: make(map[domain.UserID]ParticipantSession, domain.MaxParticipants),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *roomImpl) Join(ps ParticipantSession) ([]ParticipantDTO, error) {
	u := ps.Meta().User
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomClosed
	}
	if _, ok := r.byUser[u.ID]; ok {
		return nil, ErrDuplicateParticipant
	}
	if len(r.byUser) >= domain.MaxParticipants {
		return nil, ErrRoomFull
	}
	for _, other := range r.byUser {
		if other.Meta().User.Role == u.Role {
			return nil, ErrRoleTaken
		}
	}
	r.byUser[u.ID] = ps
	r.order = append(r.order, u.ID)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(ps.ID())).Str("user", string(u.ID)).Msg("member added")
	return r.snapshotLocked(), nil
}

func (r *roomImpl) Leave(user domain.UserID, sid SessionID) (ParticipantSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, ok := r.byUser[user]
	if !ok || ps.ID() != sid {
		return nil, false
	}
	r.removeLocked(user)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Str("user", string(user)).Msg("member removed")
	return ps, r.closeIfEmptyLocked()
}

func (r *roomImpl) Evict(user domain.UserID) (ParticipantSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, ok := r.byUser[user]
	if !ok {
		return nil, false
	}
	r.removeLocked(user)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(ps.ID())).Str("user", string(user)).Msg("member evicted")
	return ps, true
}

func (r *roomImpl) Member(user domain.UserID) (ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, ok := r.byUser[user]
	return ps, ok
}

func (r *roomImpl) Peers(user domain.UserID) []ParticipantSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ParticipantSession, 0, len(r.byUser))
	for _, id := range r.order {
		if id != user {
			out = append(out, r.byUser[id])
		}
	}
	return out
}

func (r *roomImpl) Members() []ParticipantSession {
	return r.Peers("")
}

func (r *roomImpl) Snapshot() []ParticipantDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *roomImpl) snapshotLocked() []ParticipantDTO {
	out := make([]ParticipantDTO, 0, len(r.order))
	for _, id := range r.order {
		u := r.byUser[id].Meta().User
		out = append(out, ParticipantDTO{ID: u.ID, Role: u.Role})
	}
	return out
}

func (r *roomImpl) removeLocked(user domain.UserID) {
	delete(r.byUser, user)
	for i, id := range r.order {
		if id == user {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// closeIfEmptyLocked marks an empty room closed so a concurrent Join retries on a fresh room.
func (r *roomImpl) closeIfEmptyLocked() bool {
	if len(r.byUser) == 0 {
		r.closed = true
	}
	return r.closed
}

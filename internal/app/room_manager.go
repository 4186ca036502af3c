package app

import (
	"sync"

	"github.com/dkeye/Consult/internal/core"
	"github.com/dkeye/Consult/internal/domain"
)

// RoomManager maps room ids to live rooms. Rooms are created lazily and
// dropped when they close; nothing here survives a restart.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomID]core.RoomService)}
}

func (m *RoomManager) GetOrCreate(id domain.RoomID) core.RoomService {
	m.mu.RLock()
	room, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return room
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok = m.rooms[id]; ok {
		return room
	}
	room = core.NewRoomService(id)
	m.rooms[id] = room
	return room
}

func (m *RoomManager) Get(id domain.RoomID) (core.RoomService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	return room, ok
}

// Remove drops id only if it still maps to room; a fresh room created
// after a teardown is left alone.
func (m *RoomManager) Remove(id domain.RoomID, room core.RoomService) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[id]; ok && cur == room {
		delete(m.rooms, id)
		return true
	}
	return false
}

func (m *RoomManager) List() []core.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for id, r := range m.rooms {
		snap := r.Snapshot()
		out = append(out, core.RoomInfo{ID: id, Participants: snap, Count: len(snap)})
	}
	return out
}

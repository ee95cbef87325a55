// room/manager.go
package room

import (
	"math/rand"
	"sync"

	"github.com/wfunc/spygame/arbiter"
	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/state"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// Deps are the collaborators injected into every room. Checker and
// Recorder may be nil; arbitration then degrades to voting and results go
// unrecorded.
type Deps struct {
	Broadcaster Broadcaster
	Recorder    Recorder
	Scheduler   Scheduler
	Checker     arbiter.OutcomeChecker
	Policy      state.Policy
}

// Manager is the process-wide room registry: room code -> room plus the
// session -> room binding. Its lock is independent from any room's lock.
type Manager struct {
	mu           sync.RWMutex
	rooms        map[string]*Room
	sessionRooms map[string]string
	deps         Deps
	rng          *rand.Rand
}

// NewManager builds a registry. rng drives room-code generation and seeds
// each room's own source; inject a deterministic one in tests.
func NewManager(deps Deps, rng *rand.Rand) *Manager {
	return &Manager{
		rooms:        make(map[string]*Room),
		sessionRooms: make(map[string]string),
		deps:         deps,
		rng:          rng,
	}
}

// CreateRoom creates a room in the waiting phase with owner as its sole
// member and binds the owner's session to it.
func (m *Manager) CreateRoom(name string, owner *Player) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newRoomCode()
	room := NewRoom(id, name, owner, m.deps, rand.New(rand.NewSource(m.rng.Int63())))
	m.rooms[id] = room
	m.sessionRooms[owner.SessionID] = id

	logger.Log.Infof("Room %s (%q) created by %s", id, name, owner.Name)
	return room
}

// JoinRoom appends a player to an existing waiting room and binds the
// session.
func (m *Manager) JoinRoom(roomID string, p *Player) (*Room, Snapshot, error) {
	m.mu.RLock()
	room, exists := m.rooms[roomID]
	m.mu.RUnlock()
	if !exists {
		return nil, Snapshot{}, ErrRoomNotFound
	}

	snap, err := room.Join(p)
	if err != nil {
		return nil, Snapshot{}, err
	}

	m.mu.Lock()
	m.sessionRooms[p.SessionID] = roomID
	m.mu.Unlock()

	logger.Log.Infof("Player %s joined room %s", p.Name, roomID)
	return room, snap, nil
}

// UpdatePlayerIdentity replaces one player's external identity. A no-op
// when the room or player is absent.
func (m *Manager) UpdatePlayerIdentity(roomID, playerName, identity string) {
	m.mu.RLock()
	room, exists := m.rooms[roomID]
	m.mu.RUnlock()
	if !exists {
		return
	}
	if room.UpdateIdentity(playerName, identity) {
		logger.Log.Infof("Player %s in room %s updated identity", playerName, roomID)
	}
}

// GetRoom looks a room up by code.
func (m *Manager) GetRoom(roomID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, exists := m.rooms[roomID]
	return room, exists
}

// RoomForSession resolves the room a session is bound to.
func (m *Manager) RoomForSession(sessionID string) (*Room, bool) {
	m.mu.RLock()
	roomID, bound := m.sessionRooms[sessionID]
	if !bound {
		m.mu.RUnlock()
		return nil, false
	}
	room, exists := m.rooms[roomID]
	m.mu.RUnlock()
	return room, exists
}

// RemoveSession handles a disconnect: the bound room loses the matching
// player, and a room left empty is destroyed.
func (m *Manager) RemoveSession(sessionID string) {
	m.mu.Lock()
	roomID, bound := m.sessionRooms[sessionID]
	if !bound {
		m.mu.Unlock()
		return
	}
	delete(m.sessionRooms, sessionID)
	room, exists := m.rooms[roomID]
	m.mu.Unlock()
	if !exists {
		return
	}

	_, remaining := room.removeSession(sessionID)
	if remaining == 0 {
		m.mu.Lock()
		delete(m.rooms, roomID)
		m.mu.Unlock()
		room.close()
		logger.Log.Infof("Room %s destroyed (no players left)", roomID)
	}
}

// Count returns the number of active rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// newRoomCode draws short codes until one misses the active set. Caller
// holds m.mu.
func (m *Manager) newRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeAlphabet[m.rng.Intn(len(roomCodeAlphabet))]
		}
		if _, taken := m.rooms[string(code)]; !taken {
			return string(code)
		}
	}
}

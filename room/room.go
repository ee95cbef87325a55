// room/room.go
package room

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/spygame/arbiter"
	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/network"
	"github.com/wfunc/spygame/session"
	"github.com/wfunc/spygame/state"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrNameTaken          = errors.New("player name already taken in this room")
	ErrRoundInProgress    = errors.New("round already in progress")
	ErrArbiterUnavailable = errors.New("no outcome checker configured")
)

// Player is one roster entry. Insertion order is join order.
type Player struct {
	Name      string `json:"name"`
	Identity  string `json:"identity,omitempty"`
	SessionID string `json:"-"`
}

// Snapshot is the room view broadcast to clients. The spy never appears in
// it; role reveals are unicast or part of the terminal round-ended event.
type Snapshot struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Owner   string    `json:"owner"`
	Phase   string    `json:"phase"`
	Players []*Player `json:"players"`
}

// outMessage is one queued delivery, captured while the room lock is held
// and sent after it is released.
type outMessage struct {
	sessionIDs []string
	msgID      uint16
	data       []byte
}

// Room is one isolated game session. All mutations run under a single
// mutex; states enqueue deliveries through Broadcast/SendToPlayer and the
// room flushes them once the mutex is released, so slow sockets never
// stall the next event.
type Room struct {
	ID        string
	Name      string
	Owner     string
	CreatedAt time.Time

	mu      sync.Mutex
	players []*Player
	machine state.StateMachine
	round   *state.RoundData
	outbox  []outMessage
	closed  bool

	policy      state.Policy
	rng         *rand.Rand
	broadcaster Broadcaster
	recorder    Recorder
	scheduler   Scheduler
	checker     arbiter.OutcomeChecker
}

// NewRoom creates a room in the waiting phase with the owner as the sole
// player.
func NewRoom(id, name string, owner *Player, deps Deps, rng *rand.Rand) *Room {
	r := &Room{
		ID:          id,
		Name:        name,
		Owner:       owner.Name,
		CreatedAt:   time.Now(),
		players:     []*Player{owner},
		policy:      deps.Policy,
		rng:         rng,
		broadcaster: deps.Broadcaster,
		recorder:    deps.Recorder,
		scheduler:   deps.Scheduler,
		checker:     deps.Checker,
	}
	r.machine = state.NewPhaseMachine(state.NewWaitingState(r))
	return r
}

// --- state.RoomContext ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) OwnerName() string {
	return r.Owner
}

func (r *Room) Members() []state.Member {
	members := make([]state.Member, len(r.players))
	for i, p := range r.players {
		members[i] = state.Member{Name: p.Name, Identity: p.Identity}
	}
	return members
}

func (r *Room) PlayerCount() int {
	return len(r.players)
}

func (r *Room) Policy() state.Policy {
	return r.policy
}

func (r *Room) Rand() *rand.Rand {
	return r.rng
}

func (r *Room) Round() *state.RoundData {
	return r.round
}

func (r *Room) SetRound(round *state.RoundData) {
	r.round = round
}

func (r *Room) CurrentState() state.State {
	return r.machine.GetCurrentState()
}

func (r *Room) ChangeState(newState state.State) error {
	return r.machine.ChangeState(newState)
}

// Broadcast queues a payload for every current member.
func (r *Room) Broadcast(msgID uint16, data []byte) error {
	r.outbox = append(r.outbox, outMessage{
		sessionIDs: r.memberSessionIDs(),
		msgID:      msgID,
		data:       data,
	})
	return nil
}

// SendToPlayer queues a unicast to the named player, used for per-player
// role secrecy.
func (r *Room) SendToPlayer(name string, msgID uint16, data []byte) error {
	for _, p := range r.players {
		if p.Name == name {
			r.outbox = append(r.outbox, outMessage{
				sessionIDs: []string{p.SessionID},
				msgID:      msgID,
				data:       data,
			})
			return nil
		}
	}
	return nil
}

// BroadcastSnapshot queues the room-updated push.
func (r *Room) BroadcastSnapshot() {
	data, err := json.Marshal(r.snapshot())
	if err != nil {
		logger.Log.Errorf("Room %s failed to marshal snapshot: %v", r.ID, err)
		return
	}
	r.Broadcast(network.MsgTypeRoomUpdated, data)
}

func (r *Room) ScheduleAfter(d time.Duration, fn func()) {
	r.scheduler.Schedule(d, fn)
}

// Apply runs fn serialized with the room's other mutations, then delivers
// whatever fn enqueued. Once the room is closed it does nothing, which
// neutralizes timers that fire after teardown.
func (r *Room) Apply(fn func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	fn()
	out := r.takeOutbox()
	r.mu.Unlock()
	r.deliver(out)
}

func (r *Room) CheckOutcome(identity string) (*arbiter.Result, error) {
	if r.checker == nil {
		return nil, ErrArbiterUnavailable
	}
	return r.checker.CheckOutcome(context.Background(), identity)
}

func (r *Room) RecordResult(res state.RoundResult) {
	if r.recorder != nil {
		r.recorder.RecordRoundResult(res)
	}
}

// --- room operations ---

// HandleEvent routes one game event into the current phase. The returned
// error, if any, is surfaced to the originating connection only;
// out-of-phase events come back nil and are dropped silently.
func (r *Room) HandleEvent(sess *session.Session, msgID uint16, data []byte) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRoomNotFound
	}
	err := r.machine.GetCurrentState().HandleAction(sess, msgID, data)
	out := r.takeOutbox()
	r.mu.Unlock()
	r.deliver(out)
	return err
}

// Join appends a player while the room is still waiting.
func (r *Room) Join(p *Player) (Snapshot, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Snapshot{}, ErrRoomNotFound
	}
	if r.machine.GetCurrentState().GetID() != state.PhaseWaiting {
		r.mu.Unlock()
		return Snapshot{}, ErrRoundInProgress
	}
	if len(r.players) >= r.policy.MaxPlayers {
		r.mu.Unlock()
		return Snapshot{}, ErrRoomFull
	}
	for _, existing := range r.players {
		if existing.Name == p.Name {
			r.mu.Unlock()
			return Snapshot{}, ErrNameTaken
		}
	}

	r.players = append(r.players, p)
	snap := r.snapshot()
	r.BroadcastSnapshot()
	out := r.takeOutbox()
	r.mu.Unlock()
	r.deliver(out)
	return snap, nil
}

// UpdateIdentity replaces one player's external identity. Idempotent;
// reports whether the player was present.
func (r *Room) UpdateIdentity(playerName, identity string) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	found := false
	for _, p := range r.players {
		if p.Name == playerName {
			p.Identity = identity
			found = true
			break
		}
	}
	if found {
		r.BroadcastSnapshot()
	}
	out := r.takeOutbox()
	r.mu.Unlock()
	r.deliver(out)
	return found
}

// removeSession drops the player bound to sessionID and notifies the
// remaining members. It reports whether a player was removed and how many
// remain; at zero the caller tears the room down.
func (r *Room) removeSession(sessionID string) (removed bool, remaining int) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false, len(r.players)
	}
	var name string
	for i, p := range r.players {
		if p.SessionID == sessionID {
			name = p.Name
			r.players = append(r.players[:i], r.players[i+1:]...)
			removed = true
			break
		}
	}
	remaining = len(r.players)
	if removed && remaining > 0 {
		r.BroadcastSnapshot()
		// A departure can complete a pending signal or ballot round.
		if watcher, ok := r.machine.GetCurrentState().(state.RosterWatcher); ok {
			watcher.OnPlayerRemoved(name)
		}
	}
	out := r.takeOutbox()
	r.mu.Unlock()
	r.deliver(out)
	return removed, remaining
}

// close marks the room dead. Pending timers become no-ops through Apply.
func (r *Room) close() {
	r.mu.Lock()
	r.closed = true
	r.outbox = nil
	r.mu.Unlock()
}

// SnapshotJSON renders the current room view.
func (r *Room) SnapshotJSON() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, _ := json.Marshal(r.snapshot())
	return data
}

// Phase returns the current phase id.
func (r *Room) Phase() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.GetCurrentState().GetID()
}

// HasSession reports whether the session is a member.
func (r *Room) HasSession(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.SessionID == sessionID {
			return true
		}
	}
	return false
}

// --- internals, caller holds r.mu ---

func (r *Room) snapshot() Snapshot {
	players := make([]*Player, len(r.players))
	for i, p := range r.players {
		clone := *p
		players[i] = &clone
	}
	return Snapshot{
		ID:      r.ID,
		Name:    r.Name,
		Owner:   r.Owner,
		Phase:   r.machine.GetCurrentState().GetID(),
		Players: players,
	}
}

func (r *Room) memberSessionIDs() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.SessionID
	}
	return ids
}

func (r *Room) takeOutbox() []outMessage {
	out := r.outbox
	r.outbox = nil
	return out
}

// deliver runs without the room lock so slow sockets cannot block the
// next event.
func (r *Room) deliver(out []outMessage) {
	if r.broadcaster == nil {
		return
	}
	for _, msg := range out {
		if err := r.broadcaster.SendToSessions(msg.sessionIDs, msg.msgID, msg.data); err != nil {
			logger.Log.Warnf("Room %s delivery of msg %d failed: %v", r.ID, msg.msgID, err)
		}
	}
}

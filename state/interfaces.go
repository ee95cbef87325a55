// state/interfaces.go
package state

import (
	"math/rand"
	"time"

	"github.com/wfunc/spygame/arbiter"
)

// Player is the minimal view of an acting connection a state needs.
type Player interface {
	GetID() string
}

// Member is one roster entry, in join order.
type Member struct {
	Name     string
	Identity string
}

// Policy carries the configurable round rules. VoteRoundLimit of 0 means
// tie re-votes repeat without bound.
type Policy struct {
	MinPlayers       int
	MaxPlayers       int
	VoteRoundLimit   int
	ArbitrationDelay time.Duration
}

// RoundResult is handed to the injected recorder once a round ends.
// Eliminated is empty when the round was resolved by the outcome check or
// by hitting the vote-round limit. VoteRounds is 0 for rounds that never
// reached voting.
type RoundResult struct {
	RoomID     string
	Eliminated string
	Spy        string
	Winner     string
	Reason     string
	Roles      map[string]Role
	VoteCounts map[string]int
	VoteRounds int
}

// RoomContext is the interface a Room implements so states can drive it.
// It is defined here to break the import cycle between room and state.
//
// Every method except Apply, ScheduleAfter and CheckOutcome must be called
// with the room's mutation lock held; HandleAction, OnEnter and OnExit are
// always invoked that way. Broadcast and SendToPlayer enqueue and the room
// delivers after the lock is released.
type RoomContext interface {
	GetID() string
	OwnerName() string
	Members() []Member
	PlayerCount() int
	Policy() Policy
	Rand() *rand.Rand

	Round() *RoundData
	SetRound(round *RoundData)

	CurrentState() State
	ChangeState(newState State) error

	Broadcast(msgID uint16, data []byte) error
	SendToPlayer(name string, msgID uint16, data []byte) error
	BroadcastSnapshot()

	// ScheduleAfter runs fn on a timer goroutine; fn must use Apply to
	// touch room state.
	ScheduleAfter(d time.Duration, fn func())
	// Apply runs fn serialized with the room's other mutations, then
	// delivers whatever fn enqueued. A no-op once the room is torn down.
	Apply(fn func())

	// CheckOutcome suspends; never call it under Apply.
	CheckOutcome(identity string) (*arbiter.Result, error)
	RecordResult(res RoundResult)
}

package room

import (
	"time"

	"github.com/wfunc/spygame/state"
)

// Broadcaster delivers queued payloads to sessions. Defined here to break
// the import cycle between room and broadcast.
type Broadcaster interface {
	SendToSession(sessionID string, msgID uint16, data []byte) error
	SendToSessions(sessionIDs []string, msgID uint16, data []byte) error
}

// Recorder persists the outcome of a finished round. Implementations must
// not block; they are called while the room's lock is held.
type Recorder interface {
	RecordRoundResult(res state.RoundResult)
}

// Scheduler runs callbacks after a delay on their own goroutine.
// Satisfied by timer.Manager.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) int64
}

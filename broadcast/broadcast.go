// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/spygame/session"
)

// Broadcaster delivers payloads to sessions by id.
type Broadcaster interface {
	SendToSession(sessionID string, msgID uint16, data []byte) error
	SendToSessions(sessionIDs []string, msgID uint16, data []byte) error
}

// SessionBroadcaster resolves session ids through the session manager.
// Recipients are captured by the caller before delivery, so a member list
// taken under a room's lock is delivered after the lock is gone.
type SessionBroadcaster struct {
	sessions *session.Manager
}

func NewSessionBroadcaster(sessions *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{sessions: sessions}
}

func (b *SessionBroadcaster) SendToSession(sessionID string, msgID uint16, data []byte) error {
	s, exists := b.sessions.Get(sessionID)
	if !exists {
		// The session raced its own disconnect; nothing to deliver.
		return nil
	}
	return s.Send(msgID, data)
}

func (b *SessionBroadcaster) SendToSessions(sessionIDs []string, msgID uint16, data []byte) error {
	for _, id := range sessionIDs {
		if err := b.SendToSession(id, msgID, data); err != nil {
			// Keep delivering to the rest; a dead socket is cleaned
			// up by its own read loop.
			continue
		}
	}
	return nil
}

package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/spygame/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	SentMsgID uint16
	SentData  []byte
	Closed    bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.SentMsgID = msgID
	m.SentData = data
	return nil
}

func (m *MockConnection) Close() error {
	m.Closed = true
	return nil
}

func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestSession_Send(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s1", conn)
	before := sess.LastActive

	time.Sleep(time.Millisecond)
	if err := sess.Send(42, []byte("payload")); err != nil {
		t.Fatalf("Send should not fail: %v", err)
	}

	if conn.SentMsgID != 42 || string(conn.SentData) != "payload" {
		t.Error("Send should forward msgID and data to the connection")
	}
	if !sess.LastActive.After(before) {
		t.Error("Send should refresh LastActive")
	}
}

func TestSession_Close(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s1", conn)

	if err := sess.Close(); err != nil {
		t.Fatalf("Close should not fail: %v", err)
	}
	if !conn.Closed {
		t.Error("Close should close the underlying connection")
	}
}

func TestManager_AddGetRemove(t *testing.T) {
	m := NewManager()
	sess := NewSession("s1", &MockConnection{})

	m.Add(sess)
	if m.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", m.Count())
	}

	got, exists := m.Get("s1")
	if !exists || got != sess {
		t.Error("Get should return the added session")
	}

	if _, exists := m.Get("nope"); exists {
		t.Error("Get should miss on unknown ids")
	}

	m.Remove("s1")
	if _, exists := m.Get("s1"); exists {
		t.Error("Removed session should be gone")
	}
	if m.Count() != 0 {
		t.Errorf("Expected 0 sessions, got %d", m.Count())
	}
}

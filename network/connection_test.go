package network

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoServer upgrades and echoes every message back verbatim.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func dial(t *testing.T, srv *httptest.Server) *WSConnection {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	return NewWSConnection(conn)
}

func TestWSConnection_RoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	c := dial(t, srv)
	defer c.Close()

	if err := c.Send(42, []byte(`{"hello":"world"}`)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	packet, err := c.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if packet.MsgID != 42 {
		t.Errorf("Expected msg id 42, got %d", packet.MsgID)
	}
	if string(packet.Data) != `{"hello":"world"}` {
		t.Errorf("Payload corrupted in framing: %q", packet.Data)
	}
	if int(packet.Length) != len(packet.Data) {
		t.Errorf("Length field %d does not match payload size %d", packet.Length, len(packet.Data))
	}
}

func TestWSConnection_EmptyPayload(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	c := dial(t, srv)
	defer c.Close()

	if err := c.Send(MsgTypeHeartbeat, nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	packet, err := c.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if packet.MsgID != MsgTypeHeartbeat || packet.Length != 0 {
		t.Errorf("Unexpected packet: id=%d len=%d", packet.MsgID, packet.Length)
	}
}

func TestWSConnection_HeartbeatDeadline(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	c := dial(t, srv)
	defer c.Close()
	c.SetHeartbeat(50 * time.Millisecond)

	// Nothing arrives; the read must fail once twice the interval passes.
	start := time.Now()
	if _, err := c.ReadPacket(); err == nil {
		t.Fatal("Expected a deadline error on a silent connection")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Read deadline took %v to trip", elapsed)
	}
}

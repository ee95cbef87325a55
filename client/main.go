// Interactive probe client for the spy-game server. Type "help" for the
// command list.
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeHeartbeat        = 1
	MsgTypeCreateRoom       = 101
	MsgTypeJoinRoom         = 102
	MsgTypeUpdatePlayerInfo = 103
	MsgTypeStartRound       = 201
	MsgTypeSignalRoundEnd   = 202
	MsgTypeSubmitVote       = 203
	MsgTypeRoomCreated      = 301
)

type clientState struct {
	roomID     string
	playerName string
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	state := &clientState{}
	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))

			if msgID == MsgTypeRoomCreated {
				var resp struct {
					RoomID string `json:"room_id"`
				}
				if json.Unmarshal(data, &resp) == nil {
					state.roomID = resp.RoomID
					log.Printf("Joined room %s", state.roomID)
				}
			}
		}
	}()

	// Keep the server's read deadline fresh.
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(c, MsgTypeHeartbeat, map[string]string{}); err != nil {
					return
				}
			}
		}
	}()

	log.Println("Client started. Type 'help' for commands.")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(text)
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "help":
				log.Println("create <room> <name> [id#tag] | join <code> <name> [id#tag] | identity <id#tag> | start | end | vote <target> | quit")
			case "create":
				if len(fields) < 3 {
					log.Println("usage: create <room> <name> [id#tag]")
					continue
				}
				state.playerName = fields[2]
				payload := map[string]string{"room_name": fields[1], "player_name": fields[2]}
				if len(fields) > 3 {
					payload["identity"] = fields[3]
				}
				err = send(c, MsgTypeCreateRoom, payload)
			case "join":
				if len(fields) < 3 {
					log.Println("usage: join <code> <name> [id#tag]")
					continue
				}
				state.roomID = fields[1]
				state.playerName = fields[2]
				payload := map[string]string{"room_id": fields[1], "player_name": fields[2]}
				if len(fields) > 3 {
					payload["identity"] = fields[3]
				}
				err = send(c, MsgTypeJoinRoom, payload)
			case "identity":
				if len(fields) < 2 {
					log.Println("usage: identity <id#tag>")
					continue
				}
				err = send(c, MsgTypeUpdatePlayerInfo, map[string]string{
					"room_id": state.roomID, "player_name": state.playerName, "identity": fields[1],
				})
			case "start":
				err = send(c, MsgTypeStartRound, map[string]string{"room_id": state.roomID})
			case "end":
				err = send(c, MsgTypeSignalRoundEnd, map[string]string{
					"room_id": state.roomID, "player_name": state.playerName,
				})
			case "vote":
				if len(fields) < 2 {
					log.Println("usage: vote <target>")
					continue
				}
				err = send(c, MsgTypeSubmitVote, map[string]string{
					"room_id": state.roomID, "player_name": state.playerName, "target": fields[1],
				})
			case "quit":
				return
			default:
				log.Printf("Unknown command %q", fields[0])
			}

			if err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}

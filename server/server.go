package server

import (
	"encoding/json"
	"math/rand"
	"net/http"
	netrpc "net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/spygame/arbiter"
	"github.com/wfunc/spygame/broadcast"
	"github.com/wfunc/spygame/config"
	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/monitor"
	"github.com/wfunc/spygame/network"
	"github.com/wfunc/spygame/persistence"
	"github.com/wfunc/spygame/room"
	spygame_rpc "github.com/wfunc/spygame/rpc"
	"github.com/wfunc/spygame/services"
	"github.com/wfunc/spygame/session"
	"github.com/wfunc/spygame/state"
	"github.com/wfunc/spygame/timer"
)

// gaugeResyncInterval is how often the active-rooms gauge is recomputed
// from the registry, correcting any drift from raced disconnects.
const gaugeResyncInterval = time.Minute

type GameServer struct {
	addr           string
	heartbeat      time.Duration
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	recorder       *services.RoundRecorder
	timers         *timer.Manager
	monitor        *monitor.Monitor
	rpcServer      *spygame_rpc.Server
	gaugeTask      int64
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	mon := monitor.NewMonitor("spygame")
	recorder := services.NewRoundRecorder(db, mon)
	sessions := session.NewManager()

	var checker arbiter.OutcomeChecker
	if cfg.Riot.APIKey != "" {
		checker = arbiter.NewRiotClient(
			cfg.Riot.APIKey,
			cfg.Riot.AccountHost,
			cfg.Riot.MatchHost,
			cfg.Riot.Timeout(),
		)
	}

	timers := timer.NewManager()
	deps := room.Deps{
		Broadcaster: broadcast.NewSessionBroadcaster(sessions),
		Recorder:    recorder,
		Scheduler:   timers,
		Checker:     checker,
		Policy: state.Policy{
			MinPlayers:       cfg.Game.MinPlayers,
			MaxPlayers:       cfg.Game.MaxPlayers,
			VoteRoundLimit:   cfg.Game.VoteRoundLimit,
			ArbitrationDelay: cfg.Game.ArbitrationDelay(),
		},
	}

	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		heartbeat:      cfg.Server.Heartbeat(),
		roomManager:    room.NewManager(deps, rand.New(rand.NewSource(time.Now().UnixNano()))),
		sessionManager: sessions,
		recorder:       recorder,
		timers:         timers,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允許所有跨域請求
			},
		},
	}

	rpcServer, err := spygame_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	netrpc.Register(spygame_rpc.NewStatsService(recorder))

	s.gaugeTask = timers.ScheduleRepeating(gaugeResyncInterval, gaugeResyncInterval, func() {
		s.monitor.SetActiveRooms(s.roomManager.Count())
	})

	mon.StartServer(cfg.Server.MetricsAddress)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Cancel(s.gaugeTask)
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.heartbeat > 0 {
		wsConn.SetHeartbeat(s.heartbeat)
	}
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.roomManager.RemoveSession(sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		s.monitor.SetActiveRooms(s.roomManager.Count())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			start := time.Now()
			s.handlePacket(sess, packet)
			s.monitor.IncMessagesReceived()
			s.monitor.ObserveMessageLatency(time.Since(start))
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeUpdatePlayerInfo:
		s.handleUpdatePlayerInfo(sess, packet)
	case network.MsgTypeStartRound, network.MsgTypeSignalRoundEnd, network.MsgTypeSubmitVote:
		s.handleGameEvent(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

type createRoomRequest struct {
	RoomName   string `json:"room_name"`
	PlayerName string `json:"player_name"`
	Identity   string `json:"identity"`
}

type roomCreatedResponse struct {
	RoomID string          `json:"room_id"`
	Room   json.RawMessage `json:"room"`
}

type joinRoomRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
	Identity   string `json:"identity"`
}

type updatePlayerInfoRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
	Identity   string `json:"identity"`
}

type gameEventRequest struct {
	RoomID string `json:"room_id"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req createRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.PlayerName == "" {
		s.sendError(sess, "invalid create-room request")
		return
	}
	if _, bound := s.roomManager.RoomForSession(sess.GetID()); bound {
		s.sendError(sess, "already in a room")
		return
	}

	r := s.roomManager.CreateRoom(req.RoomName, &room.Player{
		Name:      req.PlayerName,
		Identity:  req.Identity,
		SessionID: sess.GetID(),
	})
	sess.RoomID = r.ID
	sess.PlayerName = req.PlayerName
	s.monitor.SetActiveRooms(s.roomManager.Count())

	resp, _ := json.Marshal(roomCreatedResponse{RoomID: r.ID, Room: r.SnapshotJSON()})
	sess.Send(network.MsgTypeRoomCreated, resp)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req joinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.PlayerName == "" {
		s.sendError(sess, "invalid join-room request")
		return
	}
	if _, bound := s.roomManager.RoomForSession(sess.GetID()); bound {
		s.sendError(sess, "already in a room")
		return
	}

	r, snap, err := s.roomManager.JoinRoom(req.RoomID, &room.Player{
		Name:      req.PlayerName,
		Identity:  req.Identity,
		SessionID: sess.GetID(),
	})
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}
	sess.RoomID = r.ID
	sess.PlayerName = req.PlayerName

	data, _ := json.Marshal(snap)
	sess.Send(network.MsgTypeRoomJoined, data)
}

func (s *GameServer) handleUpdatePlayerInfo(sess *session.Session, packet *network.Packet) {
	var req updatePlayerInfoRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}
	s.roomManager.UpdatePlayerIdentity(req.RoomID, req.PlayerName, req.Identity)
}

func (s *GameServer) handleGameEvent(sess *session.Session, packet *network.Packet) {
	var req gameEventRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return
	}

	roomID := req.RoomID
	if roomID == "" {
		roomID = sess.RoomID
	}
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		// Late or duplicate events for a dead room are dropped.
		logger.Log.Infof("Game event %d for unknown room %q from session %s",
			packet.MsgID, roomID, sess.GetID())
		return
	}

	if err := r.HandleEvent(sess, packet.MsgID, packet.Data); err != nil {
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	data, _ := json.Marshal(errorPayload{Message: message})
	sess.Send(network.MsgTypeError, data)
}

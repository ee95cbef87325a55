package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/services"
)

// Server manages the RPC listener used by ops tooling for stats lookups.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server; services are registered by the
// caller before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatsService exposes player statistics over net/rpc.
type StatsService struct {
	recorder *services.RoundRecorder
}

func NewStatsService(recorder *services.RoundRecorder) *StatsService {
	return &StatsService{recorder: recorder}
}

type GetPlayerStatsArgs struct {
	Name string
}

type GetPlayerStatsReply struct {
	TotalGames   int
	TotalWins    int
	CivilianWins int
	SpyWins      int
}

// GetPlayerStats follows the net/rpc signature: exported method, exported
// arguments, pointer reply, error return.
func (s *StatsService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := s.recorder.GetPlayerStats(args.Name)
	if err != nil {
		return err
	}
	reply.TotalGames = stats.TotalGames
	reply.TotalWins = stats.TotalWins
	reply.CivilianWins = stats.CivilianWins
	reply.SpyWins = stats.SpyWins
	return nil
}

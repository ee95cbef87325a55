package state

import (
	"encoding/json"

	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/network"
)

// PlayingState covers the live round up to the last end-of-round signal.
type PlayingState struct {
	RoomStateBase
}

func NewPlayingState(room RoomContext) *PlayingState {
	return &PlayingState{
		RoomStateBase: RoomStateBase{
			ID:   PhasePlaying,
			Room: room,
		},
	}
}

type roundStartedPayload struct {
	Role  Role       `json:"role"`
	Round clientView `json:"round"`
}

type roundUpdatedPayload struct {
	EndedPlayers []string `json:"ended_players"`
	TotalPlayers int      `json:"total_players"`
}

type signalRoundEndRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

func (s *PlayingState) OnEnter() {
	round := s.Room.Round()
	view := round.view()

	// Each player learns only their own role.
	for name, role := range round.Roles {
		data, _ := json.Marshal(roundStartedPayload{Role: role, Round: view})
		s.Room.SendToPlayer(name, network.MsgTypeRoundStarted, data)
	}
	s.Room.BroadcastSnapshot()

	logger.Log.Infof("Round started in room %s with %d players", s.Room.GetID(), len(round.Roles))
}

func (s *PlayingState) HandleAction(actor Player, msgID uint16, data []byte) error {
	if msgID != network.MsgTypeSignalRoundEnd {
		return nil
	}

	var req signalRoundEndRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil
	}

	round := s.Room.Round()
	if round == nil || !hasMember(s.Room, req.PlayerName) {
		return nil
	}

	round.MarkEnded(req.PlayerName)

	payload, _ := json.Marshal(roundUpdatedPayload{
		EndedPlayers: round.EndedNames(),
		TotalPlayers: s.Room.PlayerCount(),
	})
	s.Room.Broadcast(network.MsgTypeRoundUpdated, payload)

	// >= tolerates a player leaving after having signaled.
	if len(round.EndedPlayers) >= s.Room.PlayerCount() {
		return s.Room.ChangeState(NewArbitratingState(s.Room))
	}
	return nil
}

// OnPlayerRemoved re-checks completion: the departed player may have been
// the last one who had not signaled.
func (s *PlayingState) OnPlayerRemoved(name string) {
	round := s.Room.Round()
	if round == nil || s.Room.PlayerCount() == 0 {
		return
	}
	if len(round.EndedPlayers) >= s.Room.PlayerCount() {
		if err := s.Room.ChangeState(NewArbitratingState(s.Room)); err != nil {
			logger.Log.Errorf("Room %s failed to enter arbitration: %v", s.Room.GetID(), err)
		}
	}
}

func hasMember(room RoomContext, name string) bool {
	for _, m := range room.Members() {
		if m.Name == name {
			return true
		}
	}
	return false
}

package state

import (
	"errors"

	"github.com/wfunc/spygame/network"
)

var (
	// ErrNotEnoughPlayers is surfaced to the connection that tried to
	// start the round.
	ErrNotEnoughPlayers = errors.New("not enough players to start the round")
)

// WaitingState is the lobby phase. The only event it accepts is
// start-round; join/leave happen at the registry layer and are rejected
// there once the room has left this phase.
type WaitingState struct {
	RoomStateBase
}

func NewWaitingState(room RoomContext) *WaitingState {
	return &WaitingState{
		RoomStateBase: RoomStateBase{
			ID:   PhaseWaiting,
			Room: room,
		},
	}
}

func (s *WaitingState) HandleAction(actor Player, msgID uint16, data []byte) error {
	if msgID != network.MsgTypeStartRound {
		return nil
	}

	members := s.Room.Members()
	if len(members) < s.Room.Policy().MinPlayers {
		return ErrNotEnoughPlayers
	}

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}

	s.Room.SetRound(NewRoundData(names, s.Room.Rand()))
	return s.Room.ChangeState(NewPlayingState(s.Room))
}

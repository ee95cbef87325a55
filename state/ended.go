package state

import (
	"encoding/json"

	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/network"
)

// EndedState is terminal for the round. The spy identity is revealed here
// and nowhere earlier. A rematch needs a fresh room.
type EndedState struct {
	RoomStateBase
	result RoundResult
}

func NewEndedState(room RoomContext, result RoundResult) *EndedState {
	return &EndedState{
		RoomStateBase: RoomStateBase{
			ID:   PhaseEnded,
			Room: room,
		},
		result: result,
	}
}

type roundEndedPayload struct {
	Eliminated string         `json:"eliminated"`
	Spy        string         `json:"spy"`
	Winner     string         `json:"winner"`
	Reason     string         `json:"reason"`
	VoteCounts map[string]int `json:"vote_counts"`
}

func (s *EndedState) OnEnter() {
	data, _ := json.Marshal(roundEndedPayload{
		Eliminated: s.result.Eliminated,
		Spy:        s.result.Spy,
		Winner:     s.result.Winner,
		Reason:     s.result.Reason,
		VoteCounts: s.result.VoteCounts,
	})
	s.Room.Broadcast(network.MsgTypeRoundEnded, data)
	s.Room.BroadcastSnapshot()

	s.Room.RecordResult(s.result)

	logger.Log.Infof("Room %s round ended: winner=%s reason=%s spy=%s eliminated=%q",
		s.Room.GetID(), s.result.Winner, s.result.Reason, s.result.Spy, s.result.Eliminated)
}

package state

import (
	"encoding/json"

	"github.com/wfunc/spygame/arbiter"
	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/network"
)

// VotingState collects one ballot per player and tallies once everyone has
// voted. A tied tally resets the ballots and stays in this phase with the
// vote round counter advanced.
type VotingState struct {
	RoomStateBase
	message   string
	apiResult *arbiter.Result
}

func NewVotingState(room RoomContext, message string, apiResult *arbiter.Result) *VotingState {
	return &VotingState{
		RoomStateBase: RoomStateBase{
			ID:   PhaseVoting,
			Room: room,
		},
		message:   message,
		apiResult: apiResult,
	}
}

type enterVotingPayload struct {
	Message   string          `json:"message"`
	Round     int             `json:"round"`
	APIResult *arbiter.Result `json:"api_result,omitempty"`
}

type voteUpdatedPayload struct {
	VotedPlayers []string `json:"voted_players"`
	TotalPlayers int      `json:"total_players"`
}

type voteRoundResetPayload struct {
	Round int `json:"round"`
}

type submitVoteRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
	Target     string `json:"target"`
}

func (s *VotingState) OnEnter() {
	round := s.Room.Round()
	data, _ := json.Marshal(enterVotingPayload{
		Message:   s.message,
		Round:     round.CurrentVoteRound,
		APIResult: s.apiResult,
	})
	s.Room.Broadcast(network.MsgTypeEnterVoting, data)
}

func (s *VotingState) HandleAction(actor Player, msgID uint16, data []byte) error {
	if msgID != network.MsgTypeSubmitVote {
		return nil
	}

	var req submitVoteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil
	}

	round := s.Room.Round()
	if round == nil || !hasMember(s.Room, req.PlayerName) {
		return nil
	}

	round.CastVote(req.PlayerName, req.Target)

	payload, _ := json.Marshal(voteUpdatedPayload{
		VotedPlayers: round.VotedNames(),
		TotalPlayers: s.Room.PlayerCount(),
	})
	s.Room.Broadcast(network.MsgTypeVoteUpdated, payload)

	if len(round.VotedPlayers) < s.Room.PlayerCount() {
		return nil
	}
	return s.resolve(round)
}

// OnPlayerRemoved re-checks completion: the departed player may have been
// the last one who had not voted. Cast ballots persist across a departure.
func (s *VotingState) OnPlayerRemoved(name string) {
	round := s.Room.Round()
	if round == nil || s.Room.PlayerCount() == 0 {
		return
	}
	if len(round.VotedPlayers) >= s.Room.PlayerCount() {
		if err := s.resolve(round); err != nil {
			logger.Log.Errorf("Room %s failed to resolve the vote: %v", s.Room.GetID(), err)
		}
	}
}

// resolve tallies a completed ballot: a tie resets for a re-vote (or ends
// the round at the configured cap), a unique plurality ends the round.
func (s *VotingState) resolve(round *RoundData) error {
	counts, leaders := round.Tally()
	if len(leaders) > 1 {
		limit := s.Room.Policy().VoteRoundLimit
		if limit > 0 && round.CurrentVoteRound >= limit {
			// The electorate failed to convict anyone within the
			// configured rounds; the spy walks.
			return s.Room.ChangeState(NewEndedState(s.Room, RoundResult{
				RoomID:     s.Room.GetID(),
				Spy:        round.Spy,
				Winner:     WinnerSpy,
				Reason:     ReasonVoteLimit,
				Roles:      round.Roles,
				VoteCounts: counts,
				VoteRounds: round.CurrentVoteRound,
			}))
		}

		round.ResetVotes()
		reset, _ := json.Marshal(voteRoundResetPayload{Round: round.CurrentVoteRound})
		s.Room.Broadcast(network.MsgTypeVoteRoundReset, reset)
		logger.Log.Infof("Room %s vote tied between %v, starting vote round %d",
			s.Room.GetID(), leaders, round.CurrentVoteRound)
		return nil
	}

	eliminated := leaders[0]
	winner := WinnerSpy
	if eliminated == round.Spy {
		winner = WinnerCivilian
	}
	return s.Room.ChangeState(NewEndedState(s.Room, RoundResult{
		RoomID:     s.Room.GetID(),
		Eliminated: eliminated,
		Spy:        round.Spy,
		Winner:     winner,
		Reason:     ReasonVoting,
		Roles:      round.Roles,
		VoteCounts: counts,
		VoteRounds: round.CurrentVoteRound,
	}))
}

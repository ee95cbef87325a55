package state

import (
	"math/rand"
	"sort"
)

type Role string

const (
	RoleSpy      Role = "spy"
	RoleCivilian Role = "civilian"
)

// RoundData exists only while a round is live. It is guarded by the
// owning room's lock.
type RoundData struct {
	Spy              string
	Roles            map[string]Role
	EndedPlayers     map[string]struct{}
	VotedPlayers     map[string]struct{}
	Votes            map[string]string
	CurrentVoteRound int
}

// NewRoundData assigns roles to the given roster: one uniformly drawn spy,
// civilians for the rest.
func NewRoundData(names []string, rng *rand.Rand) *RoundData {
	spy := names[rng.Intn(len(names))]
	roles := make(map[string]Role, len(names))
	for _, name := range names {
		if name == spy {
			roles[name] = RoleSpy
		} else {
			roles[name] = RoleCivilian
		}
	}
	return &RoundData{
		Spy:              spy,
		Roles:            roles,
		EndedPlayers:     make(map[string]struct{}),
		VotedPlayers:     make(map[string]struct{}),
		Votes:            make(map[string]string),
		CurrentVoteRound: 1,
	}
}

// MarkEnded records an end-of-round signal. Idempotent.
func (d *RoundData) MarkEnded(name string) {
	d.EndedPlayers[name] = struct{}{}
}

// CastVote records or replaces the voter's vote for the current vote round.
func (d *RoundData) CastVote(voter, target string) {
	d.Votes[voter] = target
	d.VotedPlayers[voter] = struct{}{}
}

// ResetVotes starts a tie-break round: the vote round counter advances and
// all ballots are discarded.
func (d *RoundData) ResetVotes() {
	d.CurrentVoteRound++
	d.VotedPlayers = make(map[string]struct{})
	d.Votes = make(map[string]string)
}

// Tally counts votes per target and returns the targets sharing the
// maximum count. More than one leader means a tie.
func (d *RoundData) Tally() (counts map[string]int, leaders []string) {
	counts = make(map[string]int)
	for _, target := range d.Votes {
		counts[target]++
	}

	max := 0
	for target, n := range counts {
		switch {
		case n > max:
			max = n
			leaders = []string{target}
		case n == max:
			leaders = append(leaders, target)
		}
	}
	sort.Strings(leaders)
	return counts, leaders
}

func (d *RoundData) EndedNames() []string {
	return sortedKeys(d.EndedPlayers)
}

func (d *RoundData) VotedNames() []string {
	return sortedKeys(d.VotedPlayers)
}

// clientView is the sanitized round payload broadcast to clients. The spy
// and the role map stay server-side until the round ends.
type clientView struct {
	EndedPlayers     []string `json:"ended_players"`
	VotedPlayers     []string `json:"voted_players"`
	CurrentVoteRound int      `json:"current_vote_round"`
}

func (d *RoundData) view() clientView {
	return clientView{
		EndedPlayers:     d.EndedNames(),
		VotedPlayers:     d.VotedNames(),
		CurrentVoteRound: d.CurrentVoteRound,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

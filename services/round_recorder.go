// services/round_recorder.go
package services

import (
	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/models"
	"github.com/wfunc/spygame/monitor"
	"github.com/wfunc/spygame/persistence"
	"github.com/wfunc/spygame/state"
)

// RoundRecorder is the persistence callback injected into the room layer.
// It attributes the win or loss to every participant of a finished round.
// Database work runs on its own goroutine; rooms never wait on it.
type RoundRecorder struct {
	db      persistence.Database
	monitor *monitor.Monitor
}

func NewRoundRecorder(db persistence.Database, mon *monitor.Monitor) *RoundRecorder {
	return &RoundRecorder{db: db, monitor: mon}
}

func (s *RoundRecorder) RecordRoundResult(res state.RoundResult) {
	if s.monitor != nil {
		s.monitor.ObserveRoundFinished(res.Winner)
		s.monitor.ObserveVoteRounds(res.VoteRounds)
	}

	if s.db == nil {
		return
	}

	record := &models.GameRecord{
		RoomID:     res.RoomID,
		Winner:     res.Winner,
		Reason:     res.Reason,
		Spy:        res.Spy,
		Eliminated: res.Eliminated,
		VoteCounts: res.VoteCounts,
	}
	for name, role := range res.Roles {
		outcome := "lose"
		if string(role) == res.Winner {
			outcome = "win"
		}
		record.Players = append(record.Players, models.PlayerInfo{
			Name:    name,
			Role:    string(role),
			Outcome: outcome,
		})
	}

	go func() {
		if err := s.db.SaveRound(record); err != nil {
			logger.Log.Errorf("Failed to persist round for room %s: %v", res.RoomID, err)
		}
	}()
}

// GetPlayerStats proxies the stats lookup for the RPC surface.
func (s *RoundRecorder) GetPlayerStats(name string) (*models.PlayerStats, error) {
	if s.db == nil {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.GetPlayerStats(name)
}

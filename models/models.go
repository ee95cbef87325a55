// models/models.go
package models

import (
	"time"
)

// GameRecord is one finished round.
type GameRecord struct {
	RoomID     string         `json:"room_id"`
	Winner     string         `json:"winner"` // civilian/spy
	Reason     string         `json:"reason"`
	Spy        string         `json:"spy"`
	Eliminated string         `json:"eliminated"`
	VoteCounts map[string]int `json:"vote_counts"`
	Players    []PlayerInfo   `json:"players"`
	CreatedAt  time.Time      `json:"created_at"`
}

// PlayerInfo is one participant inside a game record.
type PlayerInfo struct {
	Name    string `json:"name"`
	Role    string `json:"role"`    // spy/civilian
	Outcome string `json:"outcome"` // win/lose
}

// PlayerStats are the per-player lifetime counters.
type PlayerStats struct {
	Name         string    `json:"name"`
	TotalGames   int       `json:"total_games"`
	TotalWins    int       `json:"total_wins"`
	CivilianWins int       `json:"civilian_wins"`
	SpyWins      int       `json:"spy_wins"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormGameRecord 對應 game_records 表
type GormGameRecord struct {
	gorm.Model
	RoomID     string         `gorm:"index;not null"`
	Winner     string         `gorm:"not null"`
	Reason     string         `gorm:"not null"`
	Spy        string         `gorm:"not null"`
	Eliminated string
	VoteCounts map[string]int `gorm:"type:jsonb;serializer:json"`
	Players    []PlayerInfo   `gorm:"type:jsonb;serializer:json"`
}

// GormPlayerStats 對應 player_stats 表
type GormPlayerStats struct {
	gorm.Model
	Name         string `gorm:"uniqueIndex;not null"`
	TotalGames   int    `gorm:"default:0"`
	TotalWins    int    `gorm:"default:0"`
	CivilianWins int    `gorm:"default:0"`
	SpyWins      int    `gorm:"default:0"`
}

// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/spygame/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL實現
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 創建GORM PostgreSQL數據庫連接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 設置連接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自動遷移表結構
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormGameRecord{},
		&models.GormPlayerStats{},
	)
}

// SaveRound 保存一局結果並更新每位玩家的統計
func (p *GormPostgreSQL) SaveRound(record *models.GameRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		row := models.GormGameRecord{
			RoomID:     record.RoomID,
			Winner:     record.Winner,
			Reason:     record.Reason,
			Spy:        record.Spy,
			Eliminated: record.Eliminated,
			VoteCounts: record.VoteCounts,
			Players:    record.Players,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		for _, info := range record.Players {
			if err := bumpStats(tx, info); err != nil {
				return err
			}
		}
		return nil
	})
}

func bumpStats(tx *gorm.DB, info models.PlayerInfo) error {
	var stats models.GormPlayerStats
	err := tx.Where("name = ?", info.Name).First(&stats).Error
	if err == gorm.ErrRecordNotFound {
		stats = models.GormPlayerStats{Name: info.Name}
		if err := tx.Create(&stats).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"total_games": gorm.Expr("total_games + 1"),
	}
	if info.Outcome == "win" {
		updates["total_wins"] = gorm.Expr("total_wins + 1")
	}
	switch info.Role {
	case "civilian":
		if info.Outcome == "win" {
			updates["civilian_wins"] = gorm.Expr("civilian_wins + 1")
		}
	case "spy":
		if info.Outcome == "win" {
			updates["spy_wins"] = gorm.Expr("spy_wins + 1")
		}
	}

	return tx.Model(&models.GormPlayerStats{}).
		Where("name = ?", info.Name).
		Updates(updates).Error
}

// GetPlayerStats 獲取玩家統計
func (p *GormPostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	var stats models.GormPlayerStats
	if err := p.db.Where("name = ?", name).First(&stats).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &models.PlayerStats{
		Name:         stats.Name,
		TotalGames:   stats.TotalGames,
		TotalWins:    stats.TotalWins,
		CivilianWins: stats.CivilianWins,
		SpyWins:      stats.SpyWins,
		UpdatedAt:    stats.UpdatedAt,
	}, nil
}

// Close 關閉數據庫連接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// persistence/postgresql.go
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/wfunc/spygame/models"
)

// PostgreSQL is the database/sql implementation of Database, for
// deployments that prefer plain SQL over the ORM.
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 創建PostgreSQL數據庫連接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(100)
	db.SetConnMaxLifetime(time.Hour)

	p := &PostgreSQL{db: db}
	if err := p.createTables(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PostgreSQL) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS game_records (
			id SERIAL PRIMARY KEY,
			room_id TEXT NOT NULL,
			winner TEXT NOT NULL,
			reason TEXT NOT NULL,
			spy TEXT NOT NULL,
			eliminated TEXT,
			vote_counts JSONB,
			players JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_records_room_id ON game_records (room_id)`,
		`CREATE TABLE IF NOT EXISTS player_stats (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			total_games INT NOT NULL DEFAULT 0,
			total_wins INT NOT NULL DEFAULT 0,
			civilian_wins INT NOT NULL DEFAULT 0,
			spy_wins INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRound 保存一局結果並更新每位玩家的統計
func (p *PostgreSQL) SaveRound(record *models.GameRecord) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	voteCounts, err := json.Marshal(record.VoteCounts)
	if err != nil {
		return err
	}
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO game_records (room_id, winner, reason, spy, eliminated, vote_counts, players)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.RoomID, record.Winner, record.Reason, record.Spy, record.Eliminated,
		voteCounts, players,
	)
	if err != nil {
		return err
	}

	for _, info := range record.Players {
		won := 0
		if info.Outcome == "win" {
			won = 1
		}
		civilianWin, spyWin := 0, 0
		if won == 1 {
			if info.Role == "civilian" {
				civilianWin = 1
			} else {
				spyWin = 1
			}
		}
		_, err = tx.Exec(`
			INSERT INTO player_stats (name, total_games, total_wins, civilian_wins, spy_wins, updated_at)
			VALUES ($1, 1, $2, $3, $4, now())
			ON CONFLICT (name) DO UPDATE SET
				total_games = player_stats.total_games + 1,
				total_wins = player_stats.total_wins + $2,
				civilian_wins = player_stats.civilian_wins + $3,
				spy_wins = player_stats.spy_wins + $4,
				updated_at = now()`,
			info.Name, won, civilianWin, spyWin,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetPlayerStats 獲取玩家統計
func (p *PostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{Name: name}
	err := p.db.QueryRow(`
		SELECT total_games, total_wins, civilian_wins, spy_wins, updated_at
		FROM player_stats WHERE name = $1`, name).
		Scan(&stats.TotalGames, &stats.TotalWins, &stats.CivilianWins, &stats.SpyWins, &stats.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close 關閉數據庫連接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

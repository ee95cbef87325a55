// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/spygame/models"
)

// Database 數據庫接口
type Database interface {
	// SaveRound stores the record and bumps every participant's counters
	// in one transaction.
	SaveRound(record *models.GameRecord) error
	GetPlayerStats(name string) (*models.PlayerStats, error)
	Close() error
}

// 錯誤定義
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

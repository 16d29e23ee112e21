// persistence/interface.go
package persistence

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/wfunc/duelserver/models"
)

// Database 数据库接口
type Database interface {
	// LoadDeck returns the user's full card collection, most recent
	// match first.
	LoadDeck(userID string) ([]models.Card, error)
	SaveDuelRecord(record models.DuelRecord) error
	GetPlayerDuelStats(userID string) (*models.PlayerDuelStats, error)
	Transaction(fn func(tx *gorm.DB) error) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)

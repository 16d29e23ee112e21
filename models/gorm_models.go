package models

import (
	"time"

	"gorm.io/gorm"
)

// GormCard 卡牌模型
type GormCard struct {
	gorm.Model
	CardID            string    `gorm:"uniqueIndex;not null"`
	UserID            string    `gorm:"index;not null"`
	ChampionName      string    `gorm:"not null"`
	KDA               string    `gorm:"not null"`
	Kills             int       `gorm:"default:0"`
	Deaths            int       `gorm:"default:0"`
	Assists           int       `gorm:"default:0"`
	KillParticipation float64   `gorm:"default:0"`
	DamagePerMinute   float64   `gorm:"default:0"`
	GoldPerMinute     float64   `gorm:"default:0"`
	MinionsPerMinute  float64   `gorm:"default:0"`
	VisionScore       int       `gorm:"default:0"`
	GameLength        int       `gorm:"default:0"`
	SplashArt         string
	BorderColor       string
	GameDate          time.Time `gorm:"index"`
}

// GormDuelRecord 对决记录模型
type GormDuelRecord struct {
	gorm.Model
	RoomID    string                 `gorm:"uniqueIndex;not null"`
	Players   map[string]interface{} `gorm:"type:jsonb;not null"`
	Scores    map[string]interface{} `gorm:"type:jsonb;not null"`
	WinnerID  string                 `gorm:"index"`
	Rounds    int                    `gorm:"default:0"`
	Forfeit   bool                   `gorm:"default:false"`
	StartedAt time.Time
	EndedAt   time.Time
}

// PlayerDuelStats 玩家对决统计信息
type PlayerDuelStats struct {
	TotalDuels int `json:"total_duels"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Draws      int `json:"draws"`
}

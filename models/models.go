// models/models.go
package models

import (
	"strconv"
	"time"
)

// Card 卡牌数据模型。一张卡对应玩家打过的一局真实比赛。
// KDA 按原始数据以字符串形式存储，对比时解析为浮点数。
type Card struct {
	ID                string    `json:"id"`
	ChampionName      string    `json:"champion_name"`
	KDA               string    `json:"kda"`
	Kills             int       `json:"kills"`
	Deaths            int       `json:"deaths"`
	Assists           int       `json:"assists"`
	KillParticipation float64   `json:"kill_participation"`
	DamagePerMinute   float64   `json:"damage_per_minute"`
	GoldPerMinute     float64   `json:"gold_per_minute"`
	MinionsPerMinute  float64   `json:"minions_per_minute"`
	VisionScore       int       `json:"vision_score"`
	GameLength        int       `json:"game_length"`
	SplashArt         string    `json:"splash_art,omitempty"`
	BorderColor       string    `json:"border_color,omitempty"`
	GameDate          time.Time `json:"game_date"`
}

// Metric returns the card's comparison ratio. Missing or unparsable
// KDA values count as 0.
func (c Card) Metric() float64 {
	v, err := strconv.ParseFloat(c.KDA, 64)
	if err != nil {
		return 0
	}
	return v
}

// DuelRecord 对决记录模型
type DuelRecord struct {
	RoomID    string         `json:"room_id"`
	Players   []PlayerInfo   `json:"players"`
	Scores    map[string]int `json:"scores"`
	WinnerID  string         `json:"winner_id"` // 空字符串表示平局
	Rounds    int            `json:"rounds"`
	Forfeit   bool           `json:"forfeit"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
}

// PlayerInfo 玩家信息（用于对决记录）
type PlayerInfo struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Outcome  string `json:"outcome"` // win/lose/draw
	Score    int    `json:"score"`
}

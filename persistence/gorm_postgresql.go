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

	"github.com/wfunc/duelserver/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
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

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormCard{},
		&models.GormDuelRecord{},
	)
}

// LoadDeck 加载玩家卡组，按比赛时间倒序
func (p *GormPostgreSQL) LoadDeck(userID string) ([]models.Card, error) {
	var rows []models.GormCard
	if err := p.db.Where("user_id = ?", userID).
		Order("game_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	deck := make([]models.Card, 0, len(rows))
	for _, row := range rows {
		deck = append(deck, cardFromGorm(row))
	}
	return deck, nil
}

func cardFromGorm(row models.GormCard) models.Card {
	return models.Card{
		ID:                row.CardID,
		ChampionName:      row.ChampionName,
		KDA:               row.KDA,
		Kills:             row.Kills,
		Deaths:            row.Deaths,
		Assists:           row.Assists,
		KillParticipation: row.KillParticipation,
		DamagePerMinute:   row.DamagePerMinute,
		GoldPerMinute:     row.GoldPerMinute,
		MinionsPerMinute:  row.MinionsPerMinute,
		VisionScore:       row.VisionScore,
		GameLength:        row.GameLength,
		SplashArt:         row.SplashArt,
		BorderColor:       row.BorderColor,
		GameDate:          row.GameDate,
	}
}

// SaveDuelRecord 保存对决记录
func (p *GormPostgreSQL) SaveDuelRecord(record models.DuelRecord) error {
	players := make(map[string]interface{}, len(record.Players))
	for _, info := range record.Players {
		players[info.UserID] = map[string]interface{}{
			"username": info.Username,
			"outcome":  info.Outcome,
			"score":    info.Score,
		}
	}

	scores := make(map[string]interface{}, len(record.Scores))
	for userID, score := range record.Scores {
		scores[userID] = score
	}

	row := models.GormDuelRecord{
		RoomID:    record.RoomID,
		Players:   players,
		Scores:    scores,
		WinnerID:  record.WinnerID,
		Rounds:    record.Rounds,
		Forfeit:   record.Forfeit,
		StartedAt: record.StartedAt,
		EndedAt:   record.EndedAt,
	}
	return p.db.Create(&row).Error
}

// GetPlayerDuelStats 统计玩家的对决战绩
func (p *GormPostgreSQL) GetPlayerDuelStats(userID string) (*models.PlayerDuelStats, error) {
	var raw struct {
		TotalDuels int
		Wins       int
		Draws      int
	}

	err := p.db.Raw(`
        SELECT
            COUNT(*) as total_duels,
            SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END) as wins,
            SUM(CASE WHEN winner_id = '' THEN 1 ELSE 0 END) as draws
        FROM gorm_duel_records
        WHERE players ->> ? IS NOT NULL`,
		userID, userID,
	).Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	return &models.PlayerDuelStats{
		TotalDuels: raw.TotalDuels,
		Wins:       raw.Wins,
		Draws:      raw.Draws,
		Losses:     raw.TotalDuels - raw.Wins - raw.Draws,
	}, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction 事务支持
func (p *GormPostgreSQL) Transaction(fn func(tx *gorm.DB) error) error {
	return p.db.Transaction(fn)
}

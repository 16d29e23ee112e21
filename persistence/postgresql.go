// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/duelserver/models"
)

// PostgreSQL 不经过 GORM 的 database/sql 实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	// 创建卡牌表
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS cards (
            id SERIAL PRIMARY KEY,
            card_id VARCHAR(255) UNIQUE NOT NULL,
            user_id VARCHAR(255) NOT NULL,
            champion_name VARCHAR(100) NOT NULL,
            kda VARCHAR(32) NOT NULL,
            stats JSONB NOT NULL,
            game_date TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建对决记录表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS duel_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) UNIQUE NOT NULL,
            players JSONB NOT NULL,
            scores JSONB NOT NULL,
            winner_id VARCHAR(255) NOT NULL DEFAULT '',
            rounds INT NOT NULL DEFAULT 0,
            forfeit BOOLEAN NOT NULL DEFAULT FALSE,
            started_at TIMESTAMP NOT NULL,
            ended_at TIMESTAMP NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_cards_user_id ON cards(user_id);
        CREATE INDEX IF NOT EXISTS idx_cards_game_date ON cards(game_date);
        CREATE INDEX IF NOT EXISTS idx_duel_records_winner_id ON duel_records(winner_id);
    `)

	return err
}

// LoadDeck 加载玩家卡组，按比赛时间倒序
func (p *PostgreSQL) LoadDeck(userID string) ([]models.Card, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
        SELECT card_id, champion_name, kda, stats, game_date
        FROM cards
        WHERE user_id = $1
        ORDER BY game_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deck []models.Card
	for rows.Next() {
		var card models.Card
		var stats []byte
		if err := rows.Scan(&card.ID, &card.ChampionName, &card.KDA, &stats, &card.GameDate); err != nil {
			return nil, err
		}
		// 其余字段打包在 stats jsonb 中
		if err := json.Unmarshal(stats, &card); err != nil {
			return nil, err
		}
		deck = append(deck, card)
	}
	return deck, rows.Err()
}

// SaveDuelRecord 保存对决记录
func (p *PostgreSQL) SaveDuelRecord(record models.DuelRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}
	scores, err := json.Marshal(record.Scores)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = p.db.ExecContext(ctx, `
        INSERT INTO duel_records (room_id, players, scores, winner_id, rounds, forfeit, started_at, ended_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.RoomID, players, scores, record.WinnerID,
		record.Rounds, record.Forfeit, record.StartedAt, record.EndedAt)
	return err
}

// GetPlayerDuelStats 统计玩家的对决战绩
func (p *PostgreSQL) GetPlayerDuelStats(userID string) (*models.PlayerDuelStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stats models.PlayerDuelStats
	err := p.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN winner_id = $1 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN winner_id = '' THEN 1 ELSE 0 END), 0)
        FROM duel_records
        WHERE players @> $2`,
		userID, fmt.Sprintf(`[{"user_id": %q}]`, userID),
	).Scan(&stats.TotalDuels, &stats.Wins, &stats.Draws)
	if err != nil {
		return nil, err
	}

	stats.Losses = stats.TotalDuels - stats.Wins - stats.Draws
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

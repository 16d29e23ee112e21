// services/card_service.go
package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/wfunc/duelserver/models"
	"github.com/wfunc/duelserver/persistence"
)

// CardService 对决引擎消费的卡牌/战绩协作方
type CardService struct {
	db           persistence.Database
	deckSnapshot int
}

func NewCardService(db persistence.Database, deckSnapshot int) *CardService {
	return &CardService{db: db, deckSnapshot: deckSnapshot}
}

// GetDeckForUser returns the user's duel deck snapshot: the most
// recent qualifying cards, capped at the snapshot size. The full
// collection may be larger; the duel only ever sees this slice.
func (s *CardService) GetDeckForUser(userID string) ([]models.Card, error) {
	deck, err := s.db.LoadDeck(userID)
	if err != nil {
		return nil, fmt.Errorf("load deck for user %s: %w", userID, err)
	}

	if len(deck) > s.deckSnapshot {
		deck = deck[:s.deckSnapshot]
	}
	return deck, nil
}

// RecordDuelResult persists the finished duel inside one transaction.
func (s *CardService) RecordDuelResult(record models.DuelRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.db.SaveDuelRecord(record); err != nil {
			return fmt.Errorf("save duel record %s: %w", record.RoomID, err)
		}
		return nil
	})
}

// GetPlayerDuelStats 查询玩家战绩
func (s *CardService) GetPlayerDuelStats(userID string) (*models.PlayerDuelStats, error) {
	return s.db.GetPlayerDuelStats(userID)
}

// duel/player.go
package duel

import (
	"github.com/wfunc/duelserver/models"
)

// Player 匹配与对决上下文中的玩家。连接断开或对决结束后销毁。
type Player struct {
	SessionID string
	UserID    string
	Username  string
	Deck      []models.Card // 入队时的完整卡组快照
	Hand      []models.Card // 当前可出的手牌
	Score     int
	JoinedAt  int64
}

func NewPlayer(sessionID, userID, username string, deck []models.Card) *Player {
	return &Player{
		SessionID: sessionID,
		UserID:    userID,
		Username:  username,
		Deck:      deck,
	}
}

// CardInHand returns the card with the given id if the player can
// currently play it.
func (p *Player) CardInHand(cardID string) (models.Card, bool) {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c, true
		}
	}
	return models.Card{}, false
}

// RemoveFromHand 打出一张牌后从手牌移除
func (p *Player) RemoveFromHand(cardID string) {
	hand := p.Hand[:0]
	for _, c := range p.Hand {
		if c.ID != cardID {
			hand = append(hand, c)
		}
	}
	p.Hand = hand
}

package duel

import (
	"fmt"
	"os"
	"testing"

	"github.com/wfunc/duelserver/logger"
	"github.com/wfunc/duelserver/models"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// testDeck builds a deck of n cards with ids d<prefix>-1..n and the
// given KDA value.
func testDeck(prefix string, n int, kda string) []models.Card {
	deck := make([]models.Card, 0, n)
	for i := 1; i <= n; i++ {
		deck = append(deck, models.Card{
			ID:           fmt.Sprintf("%s-%d", prefix, i),
			ChampionName: "Champion",
			KDA:          kda,
		})
	}
	return deck
}

func newTestPlayer(sessionID, userID, username string) *Player {
	return NewPlayer(sessionID, userID, username, testDeck(userID, 10, "2.0"))
}
